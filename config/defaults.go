package config

import "time"

// SetDefaults fills every zero value with the plant's standard setting.
func SetDefaults(c *Config) {
	if c.Server.Address == "" {
		c.Server.Address = ":8888"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}

	if c.Database.Path == "" {
		c.Database.Path = "./fewr.db"
	}

	if c.Session.CookieName == "" {
		c.Session.CookieName = "fewr_session"
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = 12 * time.Hour
	}

	if c.Uploads.Dir == "" {
		c.Uploads.Dir = "./uploads"
	}
	if c.Uploads.MaxFileSize == 0 {
		c.Uploads.MaxFileSize = 10 << 20
	}
	if c.Uploads.MaxFiles == 0 {
		c.Uploads.MaxFiles = 10
	}

	if c.Plant.Timezone == "" {
		c.Plant.Timezone = "Europe/Brussels"
	}
	if c.Plant.TargetPerHour == 0 {
		c.Plant.TargetPerHour = 2400
	}
	if c.Plant.QCTarget == 0 {
		c.Plant.QCTarget = 2
	}

	if c.Labels.Timeout == 0 {
		c.Labels.Timeout = 30 * time.Second
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	if c.Auth.LoginPerMinute == 0 {
		c.Auth.LoginPerMinute = 10
	}
	if c.Auth.LoginBurst == 0 {
		c.Auth.LoginBurst = 5
	}
}

// Default returns a validated configuration built only from defaults.
func Default() *Config {
	c := &Config{}
	SetDefaults(c)
	return c
}
