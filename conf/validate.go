package conf

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/zeptools/gw-docgen/pdfs"
	"github.com/zeptools/gw-docgen/render"
	"github.com/zeptools/gw-docgen/sec"
)

const (
	StorageMemory = "memory"
	StorageKV     = "kv"
	StorageSQL    = "sql"

	MinShareSecretLen = 16
)

// Environment variables overriding .core.json
const (
	EnvListen      = "DOCGEN_LISTEN"
	EnvHost        = "DOCGEN_HOST"
	EnvShareSecret = "DOCGEN_SHARE_SECRET"
	EnvCacheKey    = "DOCGEN_CACHE_KEY"
)

func (c *Core) setDefaults() {
	if c.AppName == "" {
		c.AppName = "docgen"
	}
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.RenderEngine == "" {
		c.RenderEngine = render.EngineNative
	}
	if c.PaperSize == "" {
		c.PaperSize = pdfs.A4Size.Name
	}
	if c.Storage == "" {
		c.Storage = StorageMemory
	}
	if c.Retention == "" {
		c.Retention = "720h"
	}
	if c.ShareTTL == "" {
		c.ShareTTL = "168h"
	}
	c.Throttle.setDefaults()
}

func (c *Core) applyEnvOverrides() {
	if v := os.Getenv(EnvListen); v != "" {
		c.Listen = v
	}
	if v := os.Getenv(EnvHost); v != "" {
		c.Host = v
	}
	if v := os.Getenv(EnvShareSecret); v != "" {
		c.ShareSecret = v
	}
	if v := os.Getenv(EnvCacheKey); v != "" {
		c.CacheKey = v
	}
}

// Validate checks the settings and parses the durations.
// An empty share secret is replaced by a random one, so links do not survive a restart
func (c *Core) Validate() error {
	var errs []error
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		errs = append(errs, fmt.Errorf("listen %q: %w", c.Listen, err))
	}
	if c.Host != "" {
		u, err := url.Parse(c.Host)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("host %q must be an absolute http(s) URL", c.Host))
		}
		c.Host = strings.TrimSuffix(c.Host, "/")
	}
	switch c.RenderEngine {
	case render.EngineNative, render.EngineHTML:
	default:
		errs = append(errs, fmt.Errorf("render_engine %q must be native or html", c.RenderEngine))
	}
	var ok bool
	if c.paper, ok = pdfs.PaperSizeByName(c.PaperSize); !ok {
		errs = append(errs, fmt.Errorf("paper_size %q must be A4 or Letter", c.PaperSize))
	}
	switch c.Storage {
	case StorageMemory, StorageKV:
	case StorageSQL:
		if c.SQLDB == "" {
			errs = append(errs, errors.New("sql_db is required when storage is sql"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage %q must be memory, kv or sql", c.Storage))
	}

	var err error
	if c.retention, err = parsePositiveDuration("retention", c.Retention); err != nil {
		errs = append(errs, err)
	}
	if c.shareTTL, err = parsePositiveDuration("share_ttl", c.ShareTTL); err != nil {
		errs = append(errs, err)
	}

	switch {
	case c.ShareSecret == "":
		if c.ShareSecret, err = sec.GenerateOpaqueToken(32); err != nil {
			errs = append(errs, err)
		}
		c.ephemeralSecret = true
	case len(c.ShareSecret) < MinShareSecretLen:
		errs = append(errs, fmt.Errorf("share_secret must be at least %d bytes", MinShareSecretLen))
	}
	if _, err = c.Cipher(); err != nil {
		errs = append(errs, fmt.Errorf("cache_key: %w", err))
	}
	if _, err = c.Throttle.BucketConf(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func parsePositiveDuration(name, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", name)
	}
	return d, nil
}

// Cipher for sealing stored documents, nil when no cache key is configured
func (c *Core) Cipher() (*sec.XChaCha20Poly1305Cipher, error) {
	if c.CacheKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(c.CacheKey)
	if err != nil {
		return nil, err
	}
	return sec.NewXChaCha20Poly1305CipherBase64(key)
}
