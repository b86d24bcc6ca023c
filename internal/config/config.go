package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Input      InputConfig      `yaml:"input" mapstructure:"input"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Industries IndustriesConfig `yaml:"industries" mapstructure:"industries"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// InputConfig locates the snapshot directory and the financial-facts file.
type InputConfig struct {
	SnapshotsDir   string `yaml:"snapshots_dir" mapstructure:"snapshots_dir"`
	FinancialsPath string `yaml:"financials_path" mapstructure:"financials_path"`
	// Strict makes a malformed snapshot file fatal instead of skipped.
	Strict bool `yaml:"strict" mapstructure:"strict"`
}

// OutputConfig controls where and which artifacts are written.
type OutputConfig struct {
	Dir          string `yaml:"dir" mapstructure:"dir"`
	BundleName   string `yaml:"bundle_name" mapstructure:"bundle_name"`
	BundleGlobal string `yaml:"bundle_global" mapstructure:"bundle_global"`
	SQLite       bool   `yaml:"sqlite" mapstructure:"sqlite"`
	XLSX         bool   `yaml:"xlsx" mapstructure:"xlsx"`
}

// IndustriesConfig points at an industry keyword table. Empty uses the built-in table.
type IndustriesConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COMPGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("input.snapshots_dir", "data/searches")
	v.SetDefault("input.financials_path", "data/financials.json")
	v.SetDefault("input.strict", true)
	v.SetDefault("output.dir", "public/data")
	v.SetDefault("output.bundle_name", "data.js")
	v.SetDefault("output.bundle_global", "COMPETITOR_DATA")
	v.SetDefault("output.sqlite", true)
	v.SetDefault("output.xlsx", false)
	v.SetDefault("industries.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

var jsIdentifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// reservedOutputNames are the other artifacts written into output.dir.
var reservedOutputNames = []string{
	"index.json", "index-public.json", "entities", "graph.db",
	"graph.db-wal", "graph.db-shm", "entities.xlsx",
}

func isReservedOutputName(name string) bool {
	if name == "." || name == ".." {
		return true
	}
	for _, r := range reservedOutputNames {
		if strings.EqualFold(name, r) {
			return true
		}
	}
	return false
}

// Validate checks the settings a command depends on. Mode is the command
// name: "build" or "inspect".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "build":
		if strings.TrimSpace(c.Input.SnapshotsDir) == "" {
			problems = append(problems, "input.snapshots_dir is required")
		}
		if strings.TrimSpace(c.Output.BundleName) == "" {
			problems = append(problems, "output.bundle_name is required")
		} else if strings.ContainsAny(c.Output.BundleName, `/\`) {
			problems = append(problems, "output.bundle_name must be a file name, not a path")
		} else if isReservedOutputName(c.Output.BundleName) {
			problems = append(problems, fmt.Sprintf("output.bundle_name %q is reserved for another artifact", c.Output.BundleName))
		}
		if !jsIdentifier.MatchString(c.Output.BundleGlobal) {
			problems = append(problems, "output.bundle_global must be a JavaScript identifier")
		}
	case "inspect":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if strings.TrimSpace(c.Output.Dir) == "" {
		problems = append(problems, "output.dir is required")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
