// Package config holds the configuration of the worldtap proxy.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"

	"go.minekube.com/worldtap/pkg/handler"
)

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. WORLDTAP_QUOTA_CONNECTIONS_BURST.
const EnvPrefix = "WORLDTAP"

// DefaultConfig is a default Config.
var DefaultConfig = Config{
	Bind:                 "0.0.0.0:25565",
	Backend:              "localhost:25566",
	OutputDir:            "world-downloads",
	ExtendedViewDistance: 0,
	ProxyProtocol:        false,
	MaxSessions:          0,
	Quota: Quota{
		// Default quotas should never affect legitimate operations,
		// but rate limits aggressive behaviours.
		Connections: QuotaSettings{
			Enabled:    true,
			OPS:        3,
			Burst:      10,
			MaxEntries: 1000,
		},
	},
	ConnectionTimeout: 5 * time.Second,
	Debug:             false,
}

// Config is the configuration of the proxy.
type Config struct {
	Bind    string `yaml:"bind" json:"bind"`       // The address to listen for connections.
	Backend string `yaml:"backend" json:"backend"` // The server all clients are forwarded to.

	// OutputDir is the root the world snapshot of every session is written below.
	OutputDir string `yaml:"outputDir" json:"outputDir"`
	// ExtendedViewDistance is the minimum view distance advertised to clients.
	// 0 leaves the server's value untouched.
	ExtendedViewDistance int `yaml:"extendedViewDistance" json:"extendedViewDistance"`

	ProxyProtocol     bool          `yaml:"proxyProtocol" json:"proxyProtocol"` // ha-proxy compatibility towards the backend
	MaxSessions       int           `yaml:"maxSessions" json:"maxSessions"`     // 0 is unlimited
	Quota             Quota         `yaml:"quota" json:"quota"`
	ConnectionTimeout time.Duration `yaml:"connectionTimeout" json:"connectionTimeout"` // Backend dial timeout

	// ProtocolFile replaces the built-in packet id table.
	ProtocolFile string `yaml:"protocolFile,omitempty" json:"protocolFile,omitempty"`

	Debug     bool      `yaml:"debug" json:"debug"`
	Telemetry Telemetry `yaml:"telemetry" json:"telemetry"`
}

type (
	// Quota is the config for rate limiting.
	Quota struct {
		Connections QuotaSettings `yaml:"connections" json:"connections"` // Limits new connections per second, per IP block.
	}
	QuotaSettings struct {
		Enabled    bool    `yaml:"enabled" json:"enabled"`       // If false, there is no such limiting.
		OPS        float32 `yaml:"ops" json:"ops"`               // Allowed operations/events per second, per IP block
		Burst      int     `yaml:"burst" json:"burst"`           // The maximum events per second, per block; the size of the token bucket
		MaxEntries int     `yaml:"maxEntries" json:"maxEntries"` // Maximum number of IP blocks to keep track of in cache
	}
	// Telemetry toggles the OpenTelemetry bootstrap.
	// Exporters are configured with the standard OTEL_* environment variables.
	Telemetry struct {
		Enabled bool `yaml:"enabled" json:"enabled"`
	}
)

// Settings returns the runtime settings packet operators read.
func (c *Config) Settings() handler.Settings {
	return handler.Settings{ExtendedViewDistance: c.ExtendedViewDistance}
}

// Validate validates Config.
func (c *Config) Validate() (warns []error, errs []error) {
	e := func(m string, args ...any) { errs = append(errs, fmt.Errorf(m, args...)) }
	w := func(m string, args ...any) { warns = append(warns, fmt.Errorf(m, args...)) }

	if c == nil {
		e("config must not be nil")
		return
	}

	if len(c.Bind) == 0 {
		e("bind is empty")
	} else if err := ValidHostPort(c.Bind); err != nil {
		e("invalid bind %q: %v", c.Bind, err)
	}

	if len(c.Backend) == 0 {
		e("backend is empty")
	} else if err := ValidHostPort(c.Backend); err != nil {
		e("invalid backend %q: %v", c.Backend, err)
	}

	if c.OutputDir == "" {
		w("No outputDir configured, world data will not be written.")
	}

	if c.ExtendedViewDistance < 0 {
		e("Invalid extendedViewDistance %d, use a number >= 0", c.ExtendedViewDistance)
	} else if c.ExtendedViewDistance > 32 {
		w("extendedViewDistance %d is beyond what vanilla clients render (32)", c.ExtendedViewDistance)
	}

	if c.MaxSessions < 0 {
		e("Invalid maxSessions %d, use a number >= 0", c.MaxSessions)
	}

	if c.ConnectionTimeout <= 0 {
		e("Invalid connectionTimeout %s, use a positive duration", c.ConnectionTimeout)
	}

	if quota := c.Quota.Connections; quota.Enabled {
		if quota.OPS <= 0 {
			e("Invalid quota ops %v, use a number > 0", quota.OPS)
		}
		if quota.Burst < 1 {
			e("Invalid quota burst %d, use a number >= 1", quota.Burst)
		}
		if quota.MaxEntries < 1 {
			e("Invalid quota max entries %d, use a number >= 1", quota.MaxEntries)
		}
	}

	return
}

// ValidHostPort reports whether hostAndPort has a host and a port.
func ValidHostPort(hostAndPort string) error {
	_, _, err := net.SplitHostPort(hostAndPort)
	return err
}

// SetDefaults registers DefaultConfig as defaults of v and binds
// environment variables prefixed with EnvPrefix.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig
	v.SetDefault("bind", d.Bind)
	v.SetDefault("backend", d.Backend)
	v.SetDefault("outputDir", d.OutputDir)
	v.SetDefault("extendedViewDistance", d.ExtendedViewDistance)
	v.SetDefault("proxyProtocol", d.ProxyProtocol)
	v.SetDefault("maxSessions", d.MaxSessions)
	v.SetDefault("quota.connections.enabled", d.Quota.Connections.Enabled)
	v.SetDefault("quota.connections.ops", d.Quota.Connections.OPS)
	v.SetDefault("quota.connections.burst", d.Quota.Connections.Burst)
	v.SetDefault("quota.connections.maxEntries", d.Quota.Connections.MaxEntries)
	v.SetDefault("connectionTimeout", d.ConnectionTimeout)
	v.SetDefault("protocolFile", d.ProtocolFile)
	v.SetDefault("debug", d.Debug)
	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv() // read in environment variables that match
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

// Load reads the config file v is set up with, if any, on top of the
// defaults and environment, and validates the result. A config file
// that does not exist is not an error.
func Load(v *viper.Viper) (cfg *Config, warns []error, err error) {
	SetDefaults(v)
	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("error reading config file %q: %w", v.ConfigFileUsed(), err)
		}
	}

	cfg = new(Config)
	if err = v.Unmarshal(cfg); err != nil {
		return nil, nil, fmt.Errorf("error loading config: %w", err)
	}

	warns, errs := cfg.Validate()
	if len(errs) != 0 {
		a, s := "are", "s"
		if len(errs) == 1 {
			a, s = "is", ""
		}
		return nil, warns, fmt.Errorf("there %s %d config validation error%s: %w",
			a, len(errs), s, errors.Join(errs...))
	}
	return cfg, warns, nil
}
