package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the portal reads,
// e.g. CAMPUS_PORT or CAMPUS_SNAPSHOT_ORIENTATION.
const EnvPrefix = "CAMPUS"

type Config struct {
	Env       string `mapstructure:"env" validate:"oneof=dev test prod"`
	Port      string `mapstructure:"port" validate:"required,numeric"`
	DataFile  string `mapstructure:"dataFile" validate:"required"`
	ExportDir string `mapstructure:"exportDir" validate:"required"`
	PageSize  int    `mapstructure:"pageSize" validate:"gte=1,lte=100"`
	CacheSize int    `mapstructure:"cacheSize" validate:"gte=1"`
	LogFile   string `mapstructure:"logFile"`
	LogLevel  string `mapstructure:"logLevel" validate:"oneof=debug info warn error"`

	// ReloadInterval is how often serve checks the data file for a repack. Zero disables.
	ReloadInterval time.Duration `mapstructure:"reloadInterval" validate:"gte=0"`

	Snapshot SnapshotConfig `mapstructure:"snapshot"`
}

type SnapshotConfig struct {
	Scale       float64  `mapstructure:"scale" validate:"gt=0,lte=8"`
	Margin      float64  `mapstructure:"margin" validate:"gte=0,lt=100"`
	Paper       string   `mapstructure:"paper" validate:"oneof=a4 letter"`
	Orientation string   `mapstructure:"orientation" validate:"oneof=portrait landscape"`
	Backends    []string `mapstructure:"backends" validate:"min=1,dive,required"`
}

// IsProduction reports whether the portal runs in the prod environment.
func (c *Config) IsProduction() bool {
	return c.Env == "prod"
}

// New returns a viper instance carrying the portal defaults and reading
// CAMPUS_* environment variables. Keys are case-insensitive, so dataFile is
// CAMPUS_DATAFILE. Lists are comma-separated.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("env", "dev")
	v.SetDefault("port", "8080")
	v.SetDefault("dataFile", "data/campus.campus")
	v.SetDefault("exportDir", ".")
	v.SetDefault("pageSize", 5)
	v.SetDefault("cacheSize", 8)
	v.SetDefault("reloadInterval", time.Duration(0))
	v.SetDefault("logFile", "")
	v.SetDefault("logLevel", "info")
	v.SetDefault("snapshot.scale", 2.0)
	v.SetDefault("snapshot.margin", 10.0)
	v.SetDefault("snapshot.paper", "a4")
	v.SetDefault("snapshot.orientation", "portrait")
	v.SetDefault("snapshot.backends", []string{"pdf", "registry:gofpdf", "png"})

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configFile (if any) and the optional .env.<env> file found in
// envDir, then decodes and validates the result. Variables already present in
// the environment win over the dotenv file.
func Load(v *viper.Viper, configFile, envDir string) (*Config, error) {
	env := strings.ToLower(os.Getenv(EnvPrefix + "_ENV"))
	if env == "" {
		env = v.GetString("env")
	}

	dotEnvPath := filepath.Join(envDir, ".env."+env)
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "config: load %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "config: stat %s", dotEnvPath)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "config: read %s", configFile)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "config: decode")
	}
	cfg.Snapshot.Paper = strings.ToLower(cfg.Snapshot.Paper)
	cfg.Snapshot.Orientation = strings.ToLower(cfg.Snapshot.Orientation)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, errors.Wrap(err, "config: invalid")
	}
	return &cfg, nil
}
