package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:         30000, // 30 seconds
		FollowRedirects: BoolPtr(true),
		MaxRedirects:    10,
		AutoDecompress:  BoolPtr(true),
		LogLevel:        "none",
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.UserAgent == defaults.UserAgent &&
		c.Accept == defaults.Accept &&
		c.Referer == defaults.Referer &&
		c.ContentType == defaults.ContentType &&
		len(c.Headers) == 0 &&
		c.Timeout == defaults.Timeout &&
		c.GetFollowRedirects() == defaults.GetFollowRedirects() &&
		c.MaxRedirects == defaults.MaxRedirects &&
		c.GetKeepAlive() == defaults.GetKeepAlive() &&
		c.GetExpect100Continue() == defaults.GetExpect100Continue() &&
		c.GetAutoDecompress() == defaults.GetAutoDecompress() &&
		c.ResponseEncoding == defaults.ResponseEncoding &&
		c.PostEncoding == defaults.PostEncoding &&
		c.LogLevel == defaults.LogLevel &&
		c.GetNoColor() == defaults.GetNoColor()
}
