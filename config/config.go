package config

import (
	"errors"
	"os"
	"time"

	"github.com/c2h5oh/datasize"
)

// Config is the redirector server mode configuration structure
type Config struct {
	MappingURL           string `help:"URL to remotely stored mapping" group:"mappingsource" xor:"mappingsource" env:"MAPPING_URL"`
	MappingFile          string `type:"existingfile" help:"Path to local mapping" group:"mappingsource" xor:"mappingsource" env:"MAPPING_FILE"`
	AdminName            string `help:"Name of the admin account, used for HTTP Basic Auth for management endpoints" group:"admin" env:"ADMIN_NAME"`
	AdminPass            string `help:"Password of the admin account" group:"admin" env:"ADMIN_PASS"`
	Port                 int    `kong:"help='Port to use for HTTP',env='PORT',required"`
	DefaultCacheControl  string `help:"Cache-Control directive applied to redirects without a rule-level policy" default:"max-age=60" env:"DEFAULT_CACHE_CONTROL"`
	StripTrailingDot     bool   `help:"Strip a trailing dot from incoming Host headers before lookup" default:"true" negatable:"" env:"STRIP_TRAILING_DOT"`
	CacheDisabled        bool   `help:"Disable the in-memory decision cache" env:"CACHE_DISABLED"`
	CacheTTLSecs         int    `help:"Decision cache entry TTL in seconds" default:"3600" env:"CACHE_TTL_SECS"`
	CacheCleanupSecs     int    `help:"Decision cache cleanup interval in seconds" default:"600" env:"CACHE_CLEANUP_SECS"`
	CacheMaxSize         string `help:"Decision cache size cap, e.g. 64MB" default:"64MB" env:"CACHE_MAX_SIZE"`
	TLSCertPath          string `help:"Path to a TLS certificate" group:"tls" env:"TLS_CERT_PATH"`
	TLSKeyPath           string `help:"Path to a TLS private key" group:"tls" env:"TLS_KEY_PATH"`
	SentryDSN            string `help:"Sentry DSN for error reporting" env:"SENTRY_DSN"`
}

// TLSConfigIsValid tells whether TLS serving was requested and whether the
// configuration is usable: both paths set and readable, or neither set.
func (c *Config) TLSConfigIsValid() (bool, error) {
	if c.TLSCertPath == "" && c.TLSKeyPath == "" {
		return false, nil
	}
	if c.TLSCertPath == "" || c.TLSKeyPath == "" {
		return false, errors.New("both a TLS certificate and a key are required")
	}
	for _, p := range []string{c.TLSCertPath, c.TLSKeyPath} {
		if _, err := os.Stat(p); err != nil {
			return false, err
		}
	}
	return true, nil
}

// CacheTTL returns the decision cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSecs) * time.Second
}

// CacheCleanupInterval returns the cleanup interval as a duration.
func (c *Config) CacheCleanupInterval() time.Duration {
	return time.Duration(c.CacheCleanupSecs) * time.Second
}

// CacheSize parses the configured cache size cap.
func (c *Config) CacheSize() (datasize.ByteSize, error) {
	var v datasize.ByteSize
	if err := v.UnmarshalText([]byte(c.CacheMaxSize)); err != nil {
		return 0, err
	}
	return v, nil
}
