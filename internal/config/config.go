// Package config loads process settings from vehicle_engine.cfg.json and
// VEHICLE_ENGINE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// FileName is the config file searched for in the config directory.
	FileName  = "vehicle_engine.cfg.json"
	envPrefix = "VEHICLE_ENGINE"
)

// Storage type names.
const (
	StorageNone     = "none"
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageInflux   = "influx"
)

type SimConfig struct {
	// SampleInterval is the simulated time between recorded samples.
	SampleInterval time.Duration `mapstructure:"sampleInterval"`
	Seed           uint64        `mapstructure:"seed"`
}

type MemoryConfig struct {
	Limit      int    `mapstructure:"limit"`
	ExportPath string `mapstructure:"exportPath"`
}

type SQLiteConfig struct {
	Path          string        `mapstructure:"path"`
	DumpPath      string        `mapstructure:"dumpPath"`
	DumpInterval  time.Duration `mapstructure:"dumpInterval"`
	FlushInterval time.Duration `mapstructure:"flushInterval"`
}

type StorageConfig struct {
	Type   string       `mapstructure:"type"`
	Memory MemoryConfig `mapstructure:"memory"`
	SQLite SQLiteConfig `mapstructure:"sqlite"`
}

type DBConfig struct {
	Host          string        `mapstructure:"host"`
	Port          string        `mapstructure:"port"`
	Username      string        `mapstructure:"username"`
	Password      string        `mapstructure:"password"`
	Database      string        `mapstructure:"database"`
	FlushInterval time.Duration `mapstructure:"flushInterval"`
}

type InfluxConfig struct {
	URL        string `mapstructure:"url"`
	Token      string `mapstructure:"token"`
	Org        string `mapstructure:"org"`
	Bucket     string `mapstructure:"bucket"`
	BackupPath string `mapstructure:"backupPath"`
}

type OTelConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	ServiceName  string        `mapstructure:"serviceName"`
	BatchTimeout time.Duration `mapstructure:"batchTimeout"`
	Endpoint     string        `mapstructure:"endpoint"`
	Insecure     bool          `mapstructure:"insecure"`
}

type SandboxConfig struct {
	Audio   bool `mapstructure:"audio"`
	Traffic int  `mapstructure:"traffic"`
}

// Config is the full process configuration.
type Config struct {
	LogLevel string        `mapstructure:"logLevel"`
	LogsDir  string        `mapstructure:"logsDir"`
	Sim      SimConfig     `mapstructure:"sim"`
	Storage  StorageConfig `mapstructure:"storage"`
	DB       DBConfig      `mapstructure:"db"`
	Influx   InfluxConfig  `mapstructure:"influx"`
	OTel     OTelConfig    `mapstructure:"otel"`
	Sandbox  SandboxConfig `mapstructure:"sandbox"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("logsDir", "")

	v.SetDefault("sim.sampleInterval", "100ms")
	v.SetDefault("sim.seed", 1)

	v.SetDefault("storage.type", StorageMemory)
	v.SetDefault("storage.memory.limit", 0)
	v.SetDefault("storage.memory.exportPath", "")
	v.SetDefault("storage.sqlite.path", "vehicle_samples.db")
	v.SetDefault("storage.sqlite.dumpPath", "")
	v.SetDefault("storage.sqlite.dumpInterval", "3m")
	v.SetDefault("storage.sqlite.flushInterval", "1s")

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.username", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.database", "vehicles")
	v.SetDefault("db.flushInterval", "1s")

	v.SetDefault("influx.url", "http://localhost:8086")
	v.SetDefault("influx.token", "")
	v.SetDefault("influx.org", "vehicle-engine")
	v.SetDefault("influx.bucket", "vehicle_samples")
	v.SetDefault("influx.backupPath", "./vehicle_samples.lp.gz")

	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.serviceName", "vehicle-engine")
	v.SetDefault("otel.batchTimeout", "5s")
	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.insecure", true)

	v.SetDefault("sandbox.audio", false)
	v.SetDefault("sandbox.traffic", 3)
}

// Load reads the configuration. path is a config file or a directory
// holding FileName; an empty path searches the working directory. A
// missing file leaves the defaults and environment in effect, any other
// read error is returned.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("json")
	explicit := false
	switch info, err := os.Stat(path); {
	case path == "":
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
	case err == nil && info.IsDir():
		v.SetConfigName(FileName)
		v.AddConfigPath(path)
	default:
		v.SetConfigFile(filepath.Clean(path))
		explicit = true
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	return &cfg, nil
}
