// Package config loads service configuration from a YAML file, environment
// variables and built-in defaults, in increasing order of precedence:
// defaults < file < environment < command-line flags.
package config

import "time"

// Config is the top-level service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	Realtime RealtimeConfig `yaml:"realtime"`
}

// ServerConfig holds HTTP and WebSocket settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	CORSOrigin      string        `yaml:"corsOrigin"`
	PingInterval    time.Duration `yaml:"pingInterval"`
	PingTimeout     time.Duration `yaml:"pingTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	MaxMessageBytes int64         `yaml:"maxMessageBytes"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// RedisConfig holds the pub/sub bus connection. An empty URL disables the bus
// and the service runs in single-process mode.
type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Enabled reports whether a bus is configured.
func (c RedisConfig) Enabled() bool {
	return c.URL != ""
}

// DatabaseConfig selects and configures the user/session store.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver"` // "sqlite" or "postgres"
	Path     string         `yaml:"path"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds connection settings for the postgres driver.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslMode"`
	MinConns int    `yaml:"minConns"`
	MaxConns int    `yaml:"maxConns"`
}

// AuthConfig selects how session cookies are validated.
type AuthConfig struct {
	Mode       string `yaml:"mode"` // "session" (store lookup) or "jwt"
	CookieName string `yaml:"cookieName"`
	Secret     string `yaml:"secret"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// RealtimeConfig controls fanout behaviour.
type RealtimeConfig struct {
	DefaultChannels []string `yaml:"defaultChannels"`
	SendBuffer      int      `yaml:"sendBuffer"`
}
