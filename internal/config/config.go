package config

import "time"

// ChannelSeed is one channel created before any client connects.
type ChannelSeed struct {
	Name  string `mapstructure:"name" yaml:"name"`
	Topic string `mapstructure:"topic" yaml:"topic"`
}

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	// DefaultChannels exist at startup; the first one is auto-joined on
	// registration.
	DefaultChannels []ChannelSeed `mapstructure:"default_channels" yaml:"default_channels"`

	// GlobalOperators are operator in every channel unconditionally.
	GlobalOperators []string `mapstructure:"global_operators" yaml:"global_operators"`

	// ReservedName may only register when the client presents the secret
	// whose bcrypt hash is ReservedSecretHash. An empty hash locks the
	// name out entirely.
	ReservedName       string `mapstructure:"reserved_name" yaml:"reserved_name"`
	ReservedSecretHash string `mapstructure:"reserved_secret_hash" yaml:"reserved_secret_hash"`

	// ObserverPrefix marks read-only identities.
	ObserverPrefix string `mapstructure:"observer_prefix" yaml:"observer_prefix"`

	// ProfileDir holds per-agent markdown profile documents.
	ProfileDir string `mapstructure:"profile_dir" yaml:"profile_dir"`

	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval" yaml:"heartbeat_interval"`
	EventBufferSize   int           `mapstructure:"event_buffer_size" yaml:"event_buffer_size"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		DefaultChannels: []ChannelSeed{
			{Name: "#GENERAL", Topic: "Main lobby - welcome!"},
			{Name: "#dev", Topic: "Development chatter"},
			{Name: "#random", Topic: "Anything goes"},
		},
		GlobalOperators:   []string{"DevBot", "Argobot"},
		ReservedName:      "Argobot",
		ObserverPrefix:    "Viewer_",
		ProfileDir:        "profiles",
		HeartbeatInterval: 30 * time.Second,
		EventBufferSize:   64,
	}
}

// DefaultChannel returns the auto-join channel name, or "" when no channels
// are seeded.
func (c Config) DefaultChannel() string {
	if len(c.DefaultChannels) == 0 {
		return ""
	}
	return c.DefaultChannels[0].Name
}
