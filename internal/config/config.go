package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`

	// Document header identity used by the C-CDA generator.
	OrgName string `mapstructure:"ORG_NAME"`
	OrgOID  string `mapstructure:"ORG_OID"`

	// HL7v2 MSH sending application and facility.
	SendingApp      string `mapstructure:"SENDING_APP"`
	SendingFacility string `mapstructure:"SENDING_FACILITY"`

	// Default FHIR version for exports that do not name one.
	FHIRVersion string `mapstructure:"FHIR_VERSION"`

	// Worker pool size for bulk NDJSON exports.
	BulkWorkers int `mapstructure:"BULK_WORKERS"`

	// Optional JSON file of value-set expansions loaded into the
	// terminology registry at startup. Records carrying value-set
	// placeholders need it; fully coded records do not.
	ValueSetsPath string `mapstructure:"VALUE_SETS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("ORG_NAME", "MedSim Exporter")
	v.SetDefault("ORG_OID", "2.16.840.1.113883.19.5")
	v.SetDefault("SENDING_APP", "MEDSIM")
	v.SetDefault("SENDING_FACILITY", "MEDSIMFAC")
	v.SetDefault("FHIR_VERSION", "r4")
	v.SetDefault("BULK_WORKERS", 4)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("ORG_NAME")
	v.BindEnv("ORG_OID")
	v.BindEnv("SENDING_APP")
	v.BindEnv("SENDING_FACILITY")
	v.BindEnv("FHIR_VERSION")
	v.BindEnv("BULK_WORKERS")
	v.BindEnv("VALUE_SETS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. A database is
// optional in development, where the server falls back to the in-memory
// store, but required in production. Production also requires a JWT secret
// so the API never runs unauthenticated.
func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required in production")
		}
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
	}
	switch c.FHIRVersion {
	case "dstu2", "stu3", "r4":
	default:
		return fmt.Errorf("FHIR_VERSION must be \"dstu2\", \"stu3\", or \"r4\", got %q", c.FHIRVersion)
	}
	if c.BulkWorkers < 1 {
		return fmt.Errorf("BULK_WORKERS must be at least 1, got %d", c.BulkWorkers)
	}
	return nil
}
