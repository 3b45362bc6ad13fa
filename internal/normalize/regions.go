package normalize

// Region is the sales-territory bucket derived from canonical country.
type Region string

const (
	RegionAMER    Region = "AMER"
	RegionLATAM   Region = "LATAM"
	RegionEMEA    Region = "EMEA"
	RegionAPAC    Region = "APAC"
	RegionOther   Region = "Other"
	RegionUnknown Region = "Unknown"
)

// countryRegions keys on canonical country names as produced by Country.
var countryRegions = map[string]Region{
	"United States": RegionAMER,
	"Canada":        RegionAMER,

	"Mexico":              RegionLATAM,
	"Brazil":              RegionLATAM,
	"Argentina":           RegionLATAM,
	"Chile":               RegionLATAM,
	"Colombia":            RegionLATAM,
	"Peru":                RegionLATAM,
	"Venezuela":           RegionLATAM,
	"Ecuador":             RegionLATAM,
	"Uruguay":             RegionLATAM,
	"Paraguay":            RegionLATAM,
	"Bolivia":             RegionLATAM,
	"Costa Rica":          RegionLATAM,
	"Panama":              RegionLATAM,
	"Guatemala":           RegionLATAM,
	"Dominican Republic":  RegionLATAM,
	"Honduras":            RegionLATAM,
	"El Salvador":         RegionLATAM,
	"Nicaragua":           RegionLATAM,
	"Cuba":                RegionLATAM,
	"Puerto Rico":         RegionLATAM,
	"Jamaica":             RegionLATAM,
	"Trinidad and Tobago": RegionLATAM,

	"United Kingdom":         RegionEMEA,
	"Germany":                RegionEMEA,
	"France":                 RegionEMEA,
	"Spain":                  RegionEMEA,
	"Italy":                  RegionEMEA,
	"Netherlands":            RegionEMEA,
	"Belgium":                RegionEMEA,
	"Portugal":               RegionEMEA,
	"Switzerland":            RegionEMEA,
	"Austria":                RegionEMEA,
	"Ireland":                RegionEMEA,
	"Luxembourg":             RegionEMEA,
	"Greece":                 RegionEMEA,
	"Sweden":                 RegionEMEA,
	"Norway":                 RegionEMEA,
	"Denmark":                RegionEMEA,
	"Finland":                RegionEMEA,
	"Iceland":                RegionEMEA,
	"Poland":                 RegionEMEA,
	"Czech Republic":         RegionEMEA,
	"Slovakia":               RegionEMEA,
	"Hungary":                RegionEMEA,
	"Romania":                RegionEMEA,
	"Bulgaria":               RegionEMEA,
	"Croatia":                RegionEMEA,
	"Slovenia":               RegionEMEA,
	"Serbia":                 RegionEMEA,
	"Bosnia and Herzegovina": RegionEMEA,
	"Ukraine":                RegionEMEA,
	"Russia":                 RegionEMEA,
	"Belarus":                RegionEMEA,
	"Lithuania":              RegionEMEA,
	"Latvia":                 RegionEMEA,
	"Estonia":                RegionEMEA,
	"Moldova":                RegionEMEA,
	"Albania":                RegionEMEA,
	"North Macedonia":        RegionEMEA,
	"Turkey":                 RegionEMEA,
	"Israel":                 RegionEMEA,
	"United Arab Emirates":   RegionEMEA,
	"Saudi Arabia":           RegionEMEA,
	"Qatar":                  RegionEMEA,
	"Kuwait":                 RegionEMEA,
	"Bahrain":                RegionEMEA,
	"Oman":                   RegionEMEA,
	"Jordan":                 RegionEMEA,
	"Lebanon":                RegionEMEA,
	"Egypt":                  RegionEMEA,
	"Morocco":                RegionEMEA,
	"Tunisia":                RegionEMEA,
	"Algeria":                RegionEMEA,
	"South Africa":           RegionEMEA,
	"Nigeria":                RegionEMEA,
	"Kenya":                  RegionEMEA,
	"Ghana":                  RegionEMEA,
	"Ethiopia":               RegionEMEA,
	"Tanzania":               RegionEMEA,
	"Uganda":                 RegionEMEA,
	"Zimbabwe":               RegionEMEA,
	"Senegal":                RegionEMEA,
	"Ivory Coast":            RegionEMEA,
	"Cyprus":                 RegionEMEA,
	"Malta":                  RegionEMEA,
	"Georgia":                RegionEMEA,
	"Armenia":                RegionEMEA,
	"Azerbaijan":             RegionEMEA,
	"Iran":                   RegionEMEA,
	"Iraq":                   RegionEMEA,

	"India":       RegionAPAC,
	"China":       RegionAPAC,
	"Japan":       RegionAPAC,
	"South Korea": RegionAPAC,
	"Singapore":   RegionAPAC,
	"Australia":   RegionAPAC,
	"New Zealand": RegionAPAC,
	"Indonesia":   RegionAPAC,
	"Malaysia":    RegionAPAC,
	"Thailand":    RegionAPAC,
	"Vietnam":     RegionAPAC,
	"Philippines": RegionAPAC,
	"Taiwan":      RegionAPAC,
	"Hong Kong":   RegionAPAC,
	"Pakistan":    RegionAPAC,
	"Bangladesh":  RegionAPAC,
	"Sri Lanka":   RegionAPAC,
	"Nepal":       RegionAPAC,
	"Myanmar":     RegionAPAC,
	"Cambodia":    RegionAPAC,
	"Mongolia":    RegionAPAC,
	"Kazakhstan":  RegionAPAC,
	"Uzbekistan":  RegionAPAC,
	"Afghanistan": RegionAPAC,
	"Fiji":        RegionAPAC,
}

// RegionForCountry returns Unknown for empty input and Other for a
// non-empty country with no mapping. It never defaults to a real region.
func RegionForCountry(canonicalCountry string) Region {
	if canonicalCountry == "" {
		return RegionUnknown
	}
	if region, ok := countryRegions[canonicalCountry]; ok {
		return region
	}
	return RegionOther
}
