// Package config loads the gateway settings from flags, GATEWAY_* environment
// variables and an optional config file.
package config

import (
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys, also used as flag names.
const (
	Port           = "port"
	Upstream       = "upstream"
	Timeout        = "upstream-timeout"
	MaxParallelism = "max-parallelism"
	FanoutLimit    = "friends-fanout-limit"
	LogLevel       = "log-level"
	LogFormat      = "log-format"
	GraphiQL       = "graphiql"
	Pretty         = "pretty"
	TraceEnabled   = "tracing.enabled"
	TraceService   = "tracing.service-name"
	TraceAgent     = "tracing.agent"
	File           = "config"
)

type Config struct {
	Port int
	// Upstream is the base URL of the REST store.
	Upstream        string
	UpstreamTimeout time.Duration
	MaxParallelism  int
	FanoutLimit     int
	LogLevel        string
	LogFormat       string
	GraphiQL        bool
	Pretty          bool
	Tracing         Tracing
}

type Tracing struct {
	Enabled     bool
	ServiceName string
	Agent       string
}

func Default() *Config {
	return &Config{
		Port:           3001,
		Upstream:       "http://localhost:3000",
		MaxParallelism: 10,
		LogLevel:       "info",
		LogFormat:      "json",
		GraphiQL:       true,
		Tracing: Tracing{
			ServiceName: "rest-gateway",
			Agent:       "localhost:6831",
		},
	}
}

// RegisterFlags adds one flag per setting to fs, defaulting to Default().
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.Int(Port, d.Port, "Port to listen on.")
	fs.String(Upstream, d.Upstream, "Base URL of the REST store.")
	fs.Duration(Timeout, d.UpstreamTimeout, "Timeout of each call to the REST store. 0 disables it.")
	fs.Int(MaxParallelism, d.MaxParallelism, "Maximum number of resolvers running concurrently per query.")
	fs.Int(FanoutLimit, d.FanoutLimit, "Maximum concurrent friend lookups per friends field. 0 is unbounded.")
	fs.String(LogLevel, d.LogLevel, "Log level: debug, info, warn or error.")
	fs.String(LogFormat, d.LogFormat, "Log format: json or console.")
	fs.Bool(GraphiQL, d.GraphiQL, "Serve GraphiQL to browsers on the GraphQL endpoint.")
	fs.Bool(Pretty, d.Pretty, "Indent JSON responses.")
	fs.Bool(TraceEnabled, d.Tracing.Enabled, "Report spans to a Jaeger agent.")
	fs.String(TraceService, d.Tracing.ServiceName, "Service name reported with spans.")
	fs.String(TraceAgent, d.Tracing.Agent, "host:port of the Jaeger agent.")
	fs.String(File, "", "Configuration file. Overridden by environment variables and flags.")
}

// NewViper returns a viper instance bound to fs and the GATEWAY_ environment.
// tracing.service-name is read from GATEWAY_TRACING_SERVICE_NAME.
func NewViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, errors.Wrap(err, "config: binding flags")
	}
	v.SetEnvPrefix("GATEWAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v, nil
}

// Load reads the settings from v, including the file named by the config key.
func Load(v *viper.Viper) (*Config, error) {
	if file := v.GetString(File); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "config: reading %s", file)
		}
	}

	c := &Config{
		Port:            v.GetInt(Port),
		Upstream:        v.GetString(Upstream),
		UpstreamTimeout: v.GetDuration(Timeout),
		MaxParallelism:  v.GetInt(MaxParallelism),
		FanoutLimit:     v.GetInt(FanoutLimit),
		LogLevel:        v.GetString(LogLevel),
		LogFormat:       v.GetString(LogFormat),
		GraphiQL:        v.GetBool(GraphiQL),
		Pretty:          v.GetBool(Pretty),
		Tracing: Tracing{
			Enabled:     v.GetBool(TraceEnabled),
			ServiceName: v.GetString(TraceService),
			Agent:       v.GetString(TraceAgent),
		},
	}
	return c, c.Validate()
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("config: port %d out of range", c.Port)
	}
	u, err := url.Parse(c.Upstream)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Errorf("config: upstream %q must be an absolute http(s) URL", c.Upstream)
	}
	if c.UpstreamTimeout < 0 {
		return errors.New("config: upstream-timeout must not be negative")
	}
	if c.MaxParallelism < 1 {
		return errors.Errorf("config: max-parallelism must be at least 1, got %d", c.MaxParallelism)
	}
	if c.FanoutLimit < 0 {
		return errors.Errorf("config: friends-fanout-limit must not be negative, got %d", c.FanoutLimit)
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return errors.Errorf("config: unknown log-format %q", c.LogFormat)
	}
	return nil
}
