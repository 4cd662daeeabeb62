package config

import "time"

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            4000,
			CORSOrigin:      "http://localhost:3000",
			PingInterval:    25 * time.Second,
			PingTimeout:     30 * time.Second,
			WriteTimeout:    10 * time.Second,
			MaxMessageBytes: 64 * 1024,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "data/realtime.db",
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				SSLMode:  "disable",
				MinConns: 1,
				MaxConns: 10,
			},
		},
		Auth: AuthConfig{
			Mode:       "session",
			CookieName: "session_token",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Realtime: RealtimeConfig{
			DefaultChannels: []string{"events"},
			SendBuffer:      256,
		},
	}
}
