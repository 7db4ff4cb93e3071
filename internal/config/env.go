package config

import (
	"errors"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "STOREFRONT_"

// LoadDotEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv overlays values found through lookup (normally os.LookupEnv).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + key); ok {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	str("REMOTE_URL", &c.Remote.URL)
	str("REMOTE_CREDENTIAL", &c.Remote.Credential)
	str("LOCAL_PATH", &c.Local.Path)

	str("SERVER_ADDR", &c.Server.Addr)
	str("SERVER_TLS_CERT", &c.Server.TLSCert)
	str("SERVER_TLS_KEY", &c.Server.TLSKey)
	str("JWT_KEY", &c.Server.JWTKey)
	boolean("SERVER_DEV", &c.Server.Dev)

	str("MEDIA_ENDPOINT", &c.Media.Endpoint)
	str("MEDIA_REGION", &c.Media.Region)
	str("MEDIA_BUCKET", &c.Media.Bucket)
	str("MEDIA_ACCESS_KEY", &c.Media.AccessKey)
	str("MEDIA_SECRET_KEY", &c.Media.SecretKey)
	dur("MEDIA_PRESIGN_TTL", &c.Media.PresignTTL)

	dur("SYNC_REMOTE_TIMEOUT", &c.Sync.RemoteTimeout)
	if v, ok := lookup(EnvPrefix + "SYNC_GUEST_MERGE"); ok {
		c.Sync.GuestMerge = strings.ToLower(v)
	}

	str("LOG_LEVEL", &c.Log.Level)
	boolean("LOG_DEVELOPMENT", &c.Log.Development)
}
