package config

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `json:"addr"`
	// ShutdownSeconds bounds the graceful drain on exit.
	ShutdownSeconds int `json:"shutdown_seconds"`
}

// SetDefaults applies sane defaults.
func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ShutdownSeconds <= 0 {
		c.ShutdownSeconds = 5
	}
}
