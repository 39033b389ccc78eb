// Package settings loads process settings from httpgraph.yaml, HTTPGRAPH_*
// environment variables and command-line flags, in increasing precedence.
package settings

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Settings holds the runtime knobs of the CLI. The composition itself is
// loaded by internal/config.
type Settings struct {
	Log       LogSettings       `mapstructure:"log"`
	Otel      OtelSettings      `mapstructure:"otel"`
	Transport TransportSettings `mapstructure:"transport"`
	Runtime   RuntimeSettings   `mapstructure:"runtime"`
}

type LogSettings struct {
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Development bool   `mapstructure:"development"`
}

type OtelSettings struct {
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	Service  string `mapstructure:"service" validate:"required"`
}

type TransportSettings struct {
	Timeout         time.Duration `mapstructure:"timeout" validate:"gte=0"`
	MaxConnsPerHost int           `mapstructure:"max_conns_per_host" validate:"gte=0"`
	UserAgent       string        `mapstructure:"user_agent"`
}

type RuntimeSettings struct {
	Concurrency       int  `mapstructure:"concurrency" validate:"gte=1,lte=1024"`
	ValidateResponses bool `mapstructure:"validate_responses"`
	Dedupe            bool `mapstructure:"dedupe"`
}

// Flag names bound to settings keys.
var flagKeys = map[string]string{
	"log-level":          "log.level",
	"dev":                "log.development",
	"otel-endpoint":      "otel.endpoint",
	"otel-service":       "otel.service",
	"timeout":            "transport.timeout",
	"concurrency":        "runtime.concurrency",
	"validate-responses": "runtime.validate_responses",
	"dedupe":             "runtime.dedupe",
}

var validate = validator.New()

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.service", "httpgraph")
	v.SetDefault("transport.timeout", 3*time.Second)
	v.SetDefault("transport.max_conns_per_host", 16)
	v.SetDefault("transport.user_agent", "httpgraph")
	v.SetDefault("runtime.concurrency", 8)
	v.SetDefault("runtime.validate_responses", false)
	v.SetDefault("runtime.dedupe", false)
}

// AddFlags registers the setting flags on fs. Defaults shown in help match
// the settings defaults.
func AddFlags(fs *pflag.FlagSet) {
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.Bool("dev", false, "development logging")
	fs.String("otel-endpoint", "", "OTLP collector endpoint (host:port)")
	fs.String("otel-service", "httpgraph", "OpenTelemetry service name")
	fs.Duration("timeout", 3*time.Second, "upstream request timeout")
	fs.Int("concurrency", 8, "upstream calls dispatched at once")
	fs.Bool("validate-responses", false, "check upstream responses against output schemas")
	fs.Bool("dedupe", false, "share identical in-flight GET requests")
}

// Load reads settings. file may be empty to look for httpgraph.yaml in the
// working directory; a missing default file is not an error. fs may be nil.
func Load(file string, fs *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("httpgraph")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("HTTPGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("settings: read config: %w", err)
		}
	}

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("settings: bind %s: %w", name, err)
				}
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	if err := validate.Struct(&s); err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	return &s, nil
}
