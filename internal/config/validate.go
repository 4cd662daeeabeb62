package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port: %d out of range", c.Server.Port))
	}
	if c.Server.PingInterval <= 0 {
		errs = append(errs, errors.New("server.pingInterval must be positive"))
	}
	if c.Server.PingTimeout <= c.Server.PingInterval {
		errs = append(errs, errors.New("server.pingTimeout must exceed server.pingInterval"))
	}
	if c.Server.MaxMessageBytes < 4096 {
		errs = append(errs, fmt.Errorf("server.maxMessageBytes: %d is below 4096", c.Server.MaxMessageBytes))
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for sqlite"))
		}
	case "postgres":
		if c.Database.Postgres.Host == "" || c.Database.Postgres.Name == "" {
			errs = append(errs, errors.New("database.postgres.host and name are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver: unknown driver %q", c.Database.Driver))
	}

	switch c.Auth.Mode {
	case "session":
	case "jwt":
		if c.Auth.Secret == "" {
			errs = append(errs, errors.New("auth.secret is required in jwt mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.mode: unknown mode %q", c.Auth.Mode))
	}
	if c.Auth.CookieName == "" {
		errs = append(errs, errors.New("auth.cookieName is required"))
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}

	if c.Realtime.SendBuffer < 1 {
		errs = append(errs, errors.New("realtime.sendBuffer must be positive"))
	}

	return errors.Join(errs...)
}
