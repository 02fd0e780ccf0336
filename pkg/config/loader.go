package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".exhume"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for exhume settings.
const envPrefix = "EXHUME"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// envAliases are conventional variables accepted after the EXHUME_* name, in order.
var envAliases = map[string][]string{
	"github.token": {"GITHUB_TOKEN", "GH_TOKEN"},
	"gitlab.token": {"GITLAB_TOKEN"},
}

// LoadConfig loads configuration from defaults, a YAML file, a .env file and the
// environment, later sources winning. If configPath is empty, .exhume.yaml is searched
// in the working directory and $HOME; a missing file is not an error. Variables in
// dotenvPath apply only where the real environment leaves them unset.
func LoadConfig(configPath, dotenvPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	for key, aliases := range envAliases {
		err := viperCfg.BindEnv(append([]string{key, envName(key)}, aliases...)...)
		if err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	dotenvErr := applyDotenv(viperCfg, dotenvPath)
	if dotenvErr != nil {
		return nil, dotenvErr
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("output.root", DefaultOutputRoot)
	viperCfg.SetDefault("output.manifest", DefaultManifest)
	viperCfg.SetDefault("clone.root", DefaultCloneRoot)
	viperCfg.SetDefault("filters.extensions_file", DefaultExtensionsFile)

	viperCfg.SetDefault("api.timeout", DefaultAPITimeout)
	viperCfg.SetDefault("api.rate", DefaultAPIRate)

	viperCfg.SetDefault("github.token", "")
	viperCfg.SetDefault("github.base_url", "")
	viperCfg.SetDefault("gitlab.token", "")
	viperCfg.SetDefault("gitlab.base_url", "")

	viperCfg.SetDefault("log.level", DefaultLogLevel)
	viperCfg.SetDefault("log.json", DefaultLogJSON)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultOTLPInsecure)
	viperCfg.SetDefault("telemetry.metrics_textfile", "")
}

// applyDotenv fills keys from a .env file when none of their variables is set.
func applyDotenv(viperCfg *viper.Viper, dotenvPath string) error {
	if dotenvPath == "" {
		return nil
	}

	values, err := godotenv.Read(dotenvPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("read %s: %w", dotenvPath, err)
	}

	for _, key := range viperCfg.AllKeys() {
		names := append([]string{envName(key)}, envAliases[key]...)

		if anyEnvSet(names) {
			continue
		}

		for _, name := range names {
			if value, ok := values[name]; ok && value != "" {
				viperCfg.Set(key, value)

				break
			}
		}
	}

	return nil
}

func envName(key string) string {
	return envPrefix + envKeySeparator + strings.ToUpper(strings.ReplaceAll(key, ".", envKeySeparator))
}

func anyEnvSet(names []string) bool {
	for _, name := range names {
		if value, ok := os.LookupEnv(name); ok && value != "" {
			return true
		}
	}

	return false
}
