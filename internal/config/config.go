package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	configData Config
	v          = viper.New()
)

// Config holds all configuration settings.
type Config struct {
	// Namespace of the plugin runtime
	Namespace string
	// Plugin configuration
	Plugin struct {
		Path        string
		TrustedRoot string `mapstructure:"trusted_root"`
		Symbol      string
	}
	// Logging configuration
	Log struct {
		Level  string
		Format string
	}
	// Metrics configuration
	Metrics struct {
		Addr string
	}
}

// flagKeys maps persistent CLI flags to configuration keys.
var flagKeys = map[string]string{
	"namespace":    "namespace",
	"plugin-path":  "plugin.path",
	"trusted-root": "plugin.trusted_root",
	"symbol":       "plugin.symbol",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"metrics-addr": "metrics.addr",
}

// Initialize sets up the configuration system. A non-empty cfgFile is read
// instead of searching the default locations.
func Initialize(cfgFile string) error {
	v = viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")          // name of config file (without extension)
		v.SetConfigType("yaml")            // config file type
		v.AddConfigPath(".")               // optionally look for config in working directory
		v.AddConfigPath("$HOME/.plugcore") // look for config in .plugcore directory in home
		v.AddConfigPath("/etc/plugcore/")  // path to look for the config file in
	}

	// Set default values
	setDefaults()

	// Environment variables
	v.SetEnvPrefix("PLUGCORE") // prefix for env vars
	v.AutomaticEnv()           // read in environment variables that match
	v.SetEnvKeyReplacer(       // replace dots with underscores in env vars
		strings.NewReplacer(".", "_"),
	)

	// Create config file if it doesn't exist
	if cfgFile == "" {
		if err := ensureConfig(); err != nil {
			return fmt.Errorf("error creating config file: %w", err)
		}
	}

	// Read in config file
	if err := v.ReadInConfig(); err != nil {
		// It's okay if we can't find a config file, we'll use defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode()
}

// BindFlags binds the persistent CLI flags present in fs so that explicitly
// set flags override the config file and environment.
func BindFlags(fs *pflag.FlagSet) error {
	for flag, key := range flagKeys {
		f := fs.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}

	return decode()
}

// decode unmarshals the current settings into the config struct.
func decode() error {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return fmt.Errorf("unable to decode into config struct: %w", err)
	}
	if strings.TrimSpace(c.Namespace) == "" {
		return errors.New("namespace must not be empty")
	}
	configData = c

	return nil
}

// setDefaults sets default values for all configuration options.
func setDefaults() {
	v.SetDefault("namespace", "bu")

	// Plugin defaults
	v.SetDefault("plugin.path", "plugins")
	v.SetDefault("plugin.trusted_root", "")
	v.SetDefault("plugin.symbol", "PluginInfo")

	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "human")

	// Metrics are served only when an address is configured
	v.SetDefault("metrics.addr", "")
}

// ensureConfig creates a default config file if none exists.
func ensureConfig() error {
	home, err := os.UserHomeDir()
	if err != nil {
		// no home directory, defaults and env only.
		return nil
	}

	dir := filepath.Join(home, ".plugcore")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		// Create default config file
		defaultConfig := `# plugcore configuration file
namespace: bu

plugin:
  path: plugins
  trusted_root: ""
  symbol: PluginInfo

log:
  level: info
  format: human

metrics:
  addr: ""
`
		if err := os.WriteFile(configFile, []byte(defaultConfig), 0o644); err != nil {
			return err
		}
	}

	return nil
}

// Get returns the current configuration.
func Get() *Config {
	return &configData
}

// GetViper returns the viper instance.
func GetViper() *viper.Viper {
	return v
}
