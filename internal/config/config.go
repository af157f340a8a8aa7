package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix marks environment variables read as configuration.
// FLASHDECK_API__BASE_URL maps to api.base_url.
const EnvPrefix = "FLASHDECK_"

// Config holds application configuration.
type Config struct {
	API struct {
		BaseURL string        `koanf:"base_url" validate:"required,url"`
		Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
	} `koanf:"api"`
	HTTP struct {
		Addr string `koanf:"addr" validate:"required"`
	} `koanf:"http"`
	DB struct {
		Path string `koanf:"path"`
	} `koanf:"db"`
	Cache struct {
		Enabled bool `koanf:"enabled"`
	} `koanf:"cache"`
	SessionTTL    time.Duration `koanf:"session_ttl" validate:"gt=0"`
	RedirectDelay time.Duration `koanf:"redirect_delay" validate:"gte=0"`
	Log           struct {
		Level  string `koanf:"level" validate:"oneof=debug info warn error"`
		Format string `koanf:"format" validate:"oneof=text json"`
	} `koanf:"log"`
}

func defaults() map[string]any {
	return map[string]any{
		"api.base_url":   "http://localhost:5000/api",
		"api.timeout":    "10s",
		"http.addr":      ":8080",
		"db.path":        "flashdeck.db",
		"cache.enabled":  true,
		"session_ttl":    "30m",
		"redirect_delay": "3s",
		"log.level":      "info",
		"log.format":     "text",
	}
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"api-url":        "api.base_url",
	"api-timeout":    "api.timeout",
	"addr":           "http.addr",
	"db":             "db.path",
	"cache":          "cache.enabled",
	"session-ttl":    "session_ttl",
	"redirect-delay": "redirect_delay",
	"log-level":      "log.level",
	"log-format":     "log.format",
}

// RegisterFlags adds the configuration flags to fs. Flag defaults are only
// used when neither the file nor the environment sets a key.
func RegisterFlags(fs *pflag.FlagSet) {
	d := defaults()
	fs.String("config", "", "Path to a YAML configuration file")
	fs.String("api-url", d["api.base_url"].(string), "Base URL of the flashcard backend")
	fs.Duration("api-timeout", 10*time.Second, "Timeout for backend requests")
	fs.String("addr", d["http.addr"].(string), "Address for the web UI to listen on")
	fs.String("db", d["db.path"].(string), "Path to the SQLite cache database")
	fs.Bool("cache", true, "Keep a local copy of fetched sets")
	fs.Duration("session-ttl", 30*time.Minute, "How long an idle browser session is kept")
	fs.Duration("redirect-delay", 3*time.Second, "Delay before a missing set redirects to the library")
	fs.String("log-level", d["log.level"].(string), "Log level: debug, info, warn or error")
	fs.String("log-format", d["log.format"].(string), "Log format: text or json")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load merges defaults, the optional YAML file named by --config (or
// FLASHDECK_CONFIG), FLASHDECK_ environment variables and explicitly set
// flags, in increasing precedence. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path := os.Getenv(EnvPrefix + "CONFIG")
	if flags != nil {
		if p, _ := flags.GetString("config"); p != "" {
			path = p
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	envToKey := func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		if s == "CONFIG" {
			return ""
		}
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envToKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
