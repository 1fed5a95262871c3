package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/swiftportal/internal/flagx"
	"github.com/dmitrijs2005/swiftportal/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations
// accept "15m" style strings or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP      string          `json:"endpoint_addr_http"`
	DatabaseDSN           string          `json:"database_dsn"`
	SecretKey             string          `json:"secret_key"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration"`
	BcryptCost            int             `json:"bcrypt_cost"`
	LoginRateLimit        int             `json:"login_rate_limit"`
	LoginRateWindow       *timex.Duration `json:"login_rate_window"`
	TransactionRateLimit  int             `json:"transaction_rate_limit"`
	TransactionRateWindow *timex.Duration `json:"transaction_rate_window"`
	AllowedOrigin         string          `json:"allowed_origin"`
	TLSCertFile           string          `json:"tls_cert_file"`
	TLSKeyFile            string          `json:"tls_key_file"`
	LogLevel              string          `json:"log_level"`
	S3RootUser            string          `json:"s3_root_user"`
	S3RootPassword        string          `json:"s3_root_password"`
	S3Bucket              string          `json:"s3_bucket"`
	S3Region              string          `json:"s3_region"`
	S3BaseEndpoint        string          `json:"s3_base_endpoint"`
}

// parseJson overlays values from the JSON file given with -c or -config.
// Keys absent from the file leave the current value untouched. An
// unreadable or invalid file panics: the process cannot start with a
// configuration it was told to use but could not read.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.AllowedOrigin, c.AllowedOrigin)
	setString(&config.TLSCertFile, c.TLSCertFile)
	setString(&config.TLSKeyFile, c.TLSKeyFile)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	setInt(&config.BcryptCost, c.BcryptCost)
	setInt(&config.LoginRateLimit, c.LoginRateLimit)
	setInt(&config.TransactionRateLimit, c.TransactionRateLimit)

	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.LoginRateWindow != nil {
		config.LoginRateWindow = c.LoginRateWindow.Duration
	}
	if c.TransactionRateWindow != nil {
		config.TransactionRateWindow = c.TransactionRateWindow.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
