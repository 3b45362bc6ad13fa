package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// countryVariants maps lower-cased, diacritic-stripped variants (ISO-2 and
// ISO-3 codes, common misspellings, localized names) to canonical English
// country names. Static data asset; extend here, never inline elsewhere.
var countryVariants = map[string]string{
	// North America
	"us": "United States", "usa": "United States", "u.s.": "United States",
	"u.s.a.": "United States", "united states": "United States",
	"united states of america": "United States", "america": "United States",
	"estados unidos": "United States",
	"ca": "Canada", "can": "Canada", "canada": "Canada",
	"mx": "Mexico", "mex": "Mexico", "mexico": "Mexico",

	// Latin America
	"br": "Brazil", "bra": "Brazil", "brazil": "Brazil", "brasil": "Brazil",
	"ar": "Argentina", "arg": "Argentina", "argentina": "Argentina",
	"cl": "Chile", "chl": "Chile", "chile": "Chile",
	"co": "Colombia", "col": "Colombia", "colombia": "Colombia", "columbia": "Colombia",
	"pe": "Peru", "per": "Peru", "peru": "Peru",
	"ve": "Venezuela", "ven": "Venezuela", "venezuela": "Venezuela",
	"ec": "Ecuador", "ecu": "Ecuador", "ecuador": "Ecuador",
	"uy": "Uruguay", "ury": "Uruguay", "uruguay": "Uruguay",
	"py": "Paraguay", "pry": "Paraguay", "paraguay": "Paraguay",
	"bo": "Bolivia", "bol": "Bolivia", "bolivia": "Bolivia",
	"cr": "Costa Rica", "cri": "Costa Rica", "costa rica": "Costa Rica",
	"pa": "Panama", "pan": "Panama", "panama": "Panama",
	"gt": "Guatemala", "gtm": "Guatemala", "guatemala": "Guatemala",
	"do": "Dominican Republic", "dom": "Dominican Republic",
	"dominican republic": "Dominican Republic", "republica dominicana": "Dominican Republic",
	"hn": "Honduras", "honduras": "Honduras",
	"sv": "El Salvador", "el salvador": "El Salvador",
	"ni": "Nicaragua", "nicaragua": "Nicaragua",
	"cu": "Cuba", "cuba": "Cuba",
	"pr": "Puerto Rico", "puerto rico": "Puerto Rico",
	"jm": "Jamaica", "jamaica": "Jamaica",
	"tt": "Trinidad and Tobago", "trinidad and tobago": "Trinidad and Tobago",
	"trinidad": "Trinidad and Tobago",

	// Western Europe
	"uk": "United Kingdom", "gb": "United Kingdom", "gbr": "United Kingdom",
	"united kingdom": "United Kingdom", "great britain": "United Kingdom",
	"england": "United Kingdom", "scotland": "United Kingdom", "wales": "United Kingdom",
	"de": "Germany", "deu": "Germany", "germany": "Germany", "deutschland": "Germany",
	"fr": "France", "fra": "France", "france": "France",
	"es": "Spain", "esp": "Spain", "spain": "Spain", "espana": "Spain",
	"it": "Italy", "ita": "Italy", "italy": "Italy", "italia": "Italy",
	"nl": "Netherlands", "nld": "Netherlands", "netherlands": "Netherlands",
	"the netherlands": "Netherlands", "holland": "Netherlands",
	"be": "Belgium", "bel": "Belgium", "belgium": "Belgium",
	"pt": "Portugal", "prt": "Portugal", "portugal": "Portugal",
	"ch": "Switzerland", "che": "Switzerland", "switzerland": "Switzerland",
	"at": "Austria", "aut": "Austria", "austria": "Austria", "osterreich": "Austria",
	"ie": "Ireland", "irl": "Ireland", "ireland": "Ireland",
	"lu": "Luxembourg", "luxembourg": "Luxembourg",
	"gr": "Greece", "grc": "Greece", "greece": "Greece",

	// Nordics
	"se": "Sweden", "swe": "Sweden", "sweden": "Sweden", "sverige": "Sweden",
	"no": "Norway", "nor": "Norway", "norway": "Norway", "norge": "Norway",
	"dk": "Denmark", "dnk": "Denmark", "denmark": "Denmark", "danmark": "Denmark",
	"fi": "Finland", "fin": "Finland", "finland": "Finland", "suomi": "Finland",
	"is": "Iceland", "iceland": "Iceland",

	// Central and Eastern Europe
	"pl": "Poland", "pol": "Poland", "poland": "Poland", "polska": "Poland",
	"cz": "Czech Republic", "cze": "Czech Republic", "czech republic": "Czech Republic",
	"czechia": "Czech Republic", "czech": "Czech Republic",
	"sk": "Slovakia", "svk": "Slovakia", "slovakia": "Slovakia",
	"hu": "Hungary", "hun": "Hungary", "hungary": "Hungary",
	"ro": "Romania", "rou": "Romania", "romania": "Romania",
	"bg": "Bulgaria", "bgr": "Bulgaria", "bulgaria": "Bulgaria",
	"hr": "Croatia", "hrv": "Croatia", "croatia": "Croatia",
	"si": "Slovenia", "svn": "Slovenia", "slovenia": "Slovenia",
	"rs": "Serbia", "srb": "Serbia", "serbia": "Serbia",
	"ba": "Bosnia and Herzegovina", "bosnia": "Bosnia and Herzegovina",
	"bosnia and herzegovina": "Bosnia and Herzegovina",
	"ua": "Ukraine", "ukr": "Ukraine", "ukraine": "Ukraine",
	"ru": "Russia", "rus": "Russia", "russia": "Russia",
	"russian federation": "Russia",
	"by": "Belarus", "belarus": "Belarus",
	"lt": "Lithuania", "ltu": "Lithuania", "lithuania": "Lithuania",
	"lv": "Latvia", "lva": "Latvia", "latvia": "Latvia",
	"ee": "Estonia", "est": "Estonia", "estonia": "Estonia",
	"md": "Moldova", "moldova": "Moldova",
	"al": "Albania", "albania": "Albania",
	"mk": "North Macedonia", "north macedonia": "North Macedonia", "macedonia": "North Macedonia",

	// Middle East and Africa
	"tr": "Turkey", "tur": "Turkey", "turkey": "Turkey", "turkiye": "Turkey",
	"il": "Israel", "isr": "Israel", "israel": "Israel",
	"ae": "United Arab Emirates", "are": "United Arab Emirates",
	"uae": "United Arab Emirates", "united arab emirates": "United Arab Emirates",
	"dubai": "United Arab Emirates",
	"sa": "Saudi Arabia", "sau": "Saudi Arabia", "saudi arabia": "Saudi Arabia",
	"ksa": "Saudi Arabia", "saudi": "Saudi Arabia",
	"qa": "Qatar", "qatar": "Qatar",
	"kw": "Kuwait", "kuwait": "Kuwait",
	"bh": "Bahrain", "bahrain": "Bahrain",
	"om": "Oman", "oman": "Oman",
	"jo": "Jordan", "jordan": "Jordan",
	"lb": "Lebanon", "lebanon": "Lebanon",
	"eg": "Egypt", "egy": "Egypt", "egypt": "Egypt",
	"ma": "Morocco", "mar": "Morocco", "morocco": "Morocco",
	"tn": "Tunisia", "tunisia": "Tunisia",
	"dz": "Algeria", "algeria": "Algeria",
	"za": "South Africa", "zaf": "South Africa", "south africa": "South Africa",
	"ng": "Nigeria", "nga": "Nigeria", "nigeria": "Nigeria",
	"ke": "Kenya", "ken": "Kenya", "kenya": "Kenya",
	"gh": "Ghana", "ghana": "Ghana",
	"et": "Ethiopia", "ethiopia": "Ethiopia",
	"tz": "Tanzania", "tanzania": "Tanzania",
	"ug": "Uganda", "uganda": "Uganda",
	"zw": "Zimbabwe", "zimbabwe": "Zimbabwe",
	"sn": "Senegal", "senegal": "Senegal",
	"ci": "Ivory Coast", "ivory coast": "Ivory Coast", "cote d'ivoire": "Ivory Coast",

	// Asia Pacific
	"in": "India", "ind": "India", "india": "India", "bharat": "India",
	"cn": "China", "chn": "China", "china": "China", "prc": "China",
	"people's republic of china": "China", "mainland china": "China",
	"jp": "Japan", "jpn": "Japan", "japan": "Japan", "nippon": "Japan",
	"kr": "South Korea", "kor": "South Korea", "south korea": "South Korea",
	"korea": "South Korea", "republic of korea": "South Korea", "korea, republic of": "South Korea",
	"sg": "Singapore", "sgp": "Singapore", "singapore": "Singapore",
	"au": "Australia", "aus": "Australia", "australia": "Australia",
	"nz": "New Zealand", "nzl": "New Zealand", "new zealand": "New Zealand",
	"id": "Indonesia", "idn": "Indonesia", "indonesia": "Indonesia",
	"my": "Malaysia", "mys": "Malaysia", "malaysia": "Malaysia",
	"th": "Thailand", "tha": "Thailand", "thailand": "Thailand",
	"vn": "Vietnam", "vnm": "Vietnam", "vietnam": "Vietnam", "viet nam": "Vietnam",
	"ph": "Philippines", "phl": "Philippines", "philippines": "Philippines",
	"the philippines": "Philippines", "phillipines": "Philippines",
	"tw": "Taiwan", "twn": "Taiwan", "taiwan": "Taiwan",
	"hk": "Hong Kong", "hkg": "Hong Kong", "hong kong": "Hong Kong", "hongkong": "Hong Kong",
	"pk": "Pakistan", "pak": "Pakistan", "pakistan": "Pakistan",
	"bd": "Bangladesh", "bgd": "Bangladesh", "bangladesh": "Bangladesh",
	"lk": "Sri Lanka", "sri lanka": "Sri Lanka", "srilanka": "Sri Lanka",
	"np": "Nepal", "nepal": "Nepal",
	"mm": "Myanmar", "myanmar": "Myanmar", "burma": "Myanmar",
	"kh": "Cambodia", "cambodia": "Cambodia",
	"mn": "Mongolia", "mongolia": "Mongolia",
	"kz": "Kazakhstan", "kazakhstan": "Kazakhstan",
	"uz": "Uzbekistan", "uzbekistan": "Uzbekistan",
	"ir": "Iran", "iran": "Iran",
	"iq": "Iraq", "iraq": "Iraq",
	"af": "Afghanistan", "afghanistan": "Afghanistan",
	"fj": "Fiji", "fiji": "Fiji",

	// Other
	"cy": "Cyprus", "cyprus": "Cyprus",
	"mt": "Malta", "malta": "Malta",
	"ge": "Georgia", "georgia": "Georgia",
	"am": "Armenia", "armenia": "Armenia",
	"az": "Azerbaijan", "azerbaijan": "Azerbaijan",
}

// Country maps raw country input to its canonical English name. The
// lookup is case-insensitive and diacritic-insensitive; unmapped
// non-empty input passes through trimmed.
func Country(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	key := stripDiacritics(strings.ToLower(trimmed))
	if canonical, ok := countryVariants[key]; ok {
		return canonical
	}
	return trimmed
}

// stripDiacritics decomposes to NFD and removes combining marks, so
// "méxico" keys the same as "mexico".
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
