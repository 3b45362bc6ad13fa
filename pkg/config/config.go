package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Data    DataConfig
	Cache   CacheConfig
	Redis   RedisConfig
	Remote  RemoteConfig
	Sources SourcesConfig
	Merge   MergeConfig
	Scoring ScoringConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host                 string
	Port                 int
	ReadTimeout          int
	WriteTimeout         int
	BodyLimit            int
	MaxRequestsPerMinute int
}

// DataConfig names the snapshot artifacts the sync run writes and the
// API process consumes. The paths are a shared convention between the
// two binaries.
type DataConfig struct {
	Dir               string
	SnapshotFile      string
	SyncStatusFile    string
	QualityReportFile string
}

type CacheConfig struct {
	RefreshIntervalSec int
	MaxListRows        int
	ResponseTTLSec     int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// RemoteConfig configures the analytical warehouse HTTP endpoint used
// during sync runs.
type RemoteConfig struct {
	Endpoint   string
	APIKey     string
	ChunkSize  int
	TimeoutSec int
	MaxRetries int
}

type SourcesConfig struct {
	ExamExportPath     string
	RegistrationDBPath string
	BillingExportPath  string
}

// MergeConfig carries the company attribution priority order as external
// configuration. An empty list falls back to the built-in revised order.
type MergeConfig struct {
	CompanyPriority []string
}

type ScoringConfig struct {
	SkillWeights SkillWeights
}

type SkillWeights struct {
	Learning      float64
	ProductUsage  float64
	Certification float64
	Consistency   float64
	Growth        float64
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom reads config from the given file path, or from the standard
// search paths when path is empty.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/learner-analytics")
	}

	v.SetEnvPrefix("LEARNER_ANALYTICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Scoring.SkillWeights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring config: %w", err)
	}

	return &config, nil
}

// Validate checks the weights sum to 1.0 within float tolerance.
func (w SkillWeights) Validate() error {
	sum := w.Learning + w.ProductUsage + w.Certification + w.Consistency + w.Growth
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("skill weights must sum to 1.0, got %.3f", sum)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.bodyLimit", 1048576)
	v.SetDefault("server.maxRequestsPerMinute", 120)

	v.SetDefault("data.dir", "./data")
	v.SetDefault("data.snapshotFile", "learners_enriched.csv")
	v.SetDefault("data.syncStatusFile", "sync_status.json")
	v.SetDefault("data.qualityReportFile", "data_quality_report.json")

	v.SetDefault("cache.refreshIntervalSec", 300)
	v.SetDefault("cache.maxListRows", 1000)
	v.SetDefault("cache.responseTTLSec", 60)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("remote.endpoint", "")
	v.SetDefault("remote.chunkSize", 10000)
	v.SetDefault("remote.timeoutSec", 120)
	v.SetDefault("remote.maxRetries", 3)

	v.SetDefault("sources.examExportPath", "./data/exports/exam_results.csv")
	v.SetDefault("sources.registrationDBPath", "./data/registrations.db")
	v.SetDefault("sources.billingExportPath", "./data/exports/billing_accounts.csv")

	v.SetDefault("merge.companyPriority", []string{})

	v.SetDefault("scoring.skillWeights.learning", 0.25)
	v.SetDefault("scoring.skillWeights.productUsage", 0.25)
	v.SetDefault("scoring.skillWeights.certification", 0.30)
	v.SetDefault("scoring.skillWeights.consistency", 0.10)
	v.SetDefault("scoring.skillWeights.growth", 0.10)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
}
