package config

// parseEnv applies environment overrides. The lookup function is
// os.LookupEnv in production.
func parseEnv(config *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup("ADDRESS"); ok && v != "" {
		config.EndpointAddrHTTP = v
	}
	if v, ok := lookup("DATABASE_DSN"); ok && v != "" {
		config.DatabaseDSN = v
	}
	if v, ok := lookup("JWT_SECRET"); ok && v != "" {
		config.SecretKey = v
	}
	if v, ok := lookup("ALLOWED_ORIGIN"); ok && v != "" {
		config.AllowedOrigin = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		config.LogLevel = v
	}
}
