package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at path over the defaults and then applies
// environment overrides. An empty path or a missing file yields defaults plus
// environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Default(), fmt.Errorf("parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return Default(), fmt.Errorf("read %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, os.Getenv); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// applyEnv overrides cfg from the environment. lookup is os.Getenv in
// production and a map in tests.
func applyEnv(cfg *Config, lookup func(string) string) error {
	var err error

	setString := func(key string, dst *string) {
		if v := lookup(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		v := lookup(key)
		if v == "" || err != nil {
			return
		}
		n, perr := strconv.Atoi(v)
		if perr != nil {
			err = fmt.Errorf("%s: %w", key, perr)
			return
		}
		*dst = n
	}
	// Durations accept Go syntax ("25s") or plain milliseconds ("25000").
	setDuration := func(key string, dst *time.Duration) {
		v := lookup(key)
		if v == "" || err != nil {
			return
		}
		if ms, perr := strconv.Atoi(v); perr == nil {
			*dst = time.Duration(ms) * time.Millisecond
			return
		}
		d, perr := time.ParseDuration(v)
		if perr != nil {
			err = fmt.Errorf("%s: %w", key, perr)
			return
		}
		*dst = d
	}

	setInt("PORT", &cfg.Server.Port)
	setString("CORS_ORIGIN", &cfg.Server.CORSOrigin)
	setDuration("PING_INTERVAL", &cfg.Server.PingInterval)
	setDuration("PING_TIMEOUT", &cfg.Server.PingTimeout)

	setString("REDIS_URL", &cfg.Redis.URL)
	setString("REDIS_PASSWORD", &cfg.Redis.Password)
	setInt("REDIS_DB", &cfg.Redis.DB)

	setString("DB_DRIVER", &cfg.Database.Driver)
	setString("DB_PATH", &cfg.Database.Path)
	setString("PGHOST", &cfg.Database.Postgres.Host)
	setInt("PGPORT", &cfg.Database.Postgres.Port)
	setString("PGUSER", &cfg.Database.Postgres.User)
	setString("PGPASSWORD", &cfg.Database.Postgres.Password)
	setString("PGDATABASE", &cfg.Database.Postgres.Name)
	setString("PGSSLMODE", &cfg.Database.Postgres.SSLMode)

	setString("AUTH_MODE", &cfg.Auth.Mode)
	setString("AUTH_COOKIE_NAME", &cfg.Auth.CookieName)
	setString("AUTH_SECRET", &cfg.Auth.Secret)

	setString("LOG_LEVEL", &cfg.Log.Level)
	setString("LOG_FORMAT", &cfg.Log.Format)

	if v := lookup("DEFAULT_CHANNELS"); v != "" {
		var channels []string
		for _, ch := range strings.Split(v, ",") {
			if ch = strings.TrimSpace(ch); ch != "" {
				channels = append(channels, ch)
			}
		}
		cfg.Realtime.DefaultChannels = channels
	}

	return err
}
