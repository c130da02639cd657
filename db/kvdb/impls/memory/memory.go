// Package memory is an in-process kvdb.Client for single-instance deployments and tests.
// Expirations are checked lazily on access.
package memory

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/zeptools/gw-docgen/db/kvdb"
)

type entry struct {
	value     string
	hash      map[string]string // non-nil for hash keys
	expiresAt time.Time         // zero = no expiry
}

type Client struct {
	Conf *kvdb.Conf
	Now  func() time.Time

	mu   sync.Mutex
	data map[string]*entry
}

var _ kvdb.Client = (*Client)(nil)

func (c *Client) Init(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Conf == nil {
		c.Conf = &kvdb.Conf{Type: "memory"}
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	c.data = make(map[string]*entry)
	return nil
}

func (c *Client) Close() error {
	return nil
}

func (c *Client) GetConf() *kvdb.Conf {
	return c.Conf
}

// live returns the entry unless missing or expired. Caller holds mu
func (c *Client) live(key string) (*entry, bool) {
	e, ok := c.data[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && !c.Now().Before(e.expiresAt) {
		delete(c.data, key)
		return nil, false
	}
	return e, true
}

func (c *Client) Delete(_ context.Context, keys ...string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := c.live(k); ok {
			delete(c.data, k)
			n++
		}
	}
	return n, nil
}

func (c *Client) Expire(_ context.Context, key string, expiration time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.live(key)
	if !ok {
		return false, nil
	}
	e.expiresAt = c.Now().Add(expiration)
	return true, nil
}

// ScanKeys returns everything in one batch, sorted
func (c *Client) ScanKeys(_ context.Context, _ any, match string, _ int) ([]string, any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if match == "" {
		match = "*"
	}
	var keys []string
	for k := range c.data {
		if _, ok := c.live(k); !ok {
			continue
		}
		matched, err := path.Match(match, k)
		if err != nil {
			return nil, nil, err
		}
		if matched {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil, nil
}

func (c *Client) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.live(key)
	if !ok {
		e = &entry{value: "0"}
		c.data[key] = e
	}
	n, err := strconv.ParseInt(e.value, 10, 64)
	if err != nil || e.hash != nil {
		return 0, fmt.Errorf("value at %q is not an integer", key)
	}
	n++
	e.value = strconv.FormatInt(n, 10)
	return n, nil
}

// hashEntry returns the hash at key, creating it when missing. Caller holds mu
func (c *Client) hashEntry(key string) (*entry, error) {
	e, ok := c.live(key)
	if !ok {
		e = &entry{hash: make(map[string]string)}
		c.data[key] = e
	}
	if e.hash == nil {
		return nil, fmt.Errorf("value at %q is not a hash", key)
	}
	return e, nil
}

func (c *Client) GetField(_ context.Context, key string, field string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.live(key)
	if !ok || e.hash == nil {
		return "", false, nil
	}
	v, ok := e.hash[field]
	return v, ok, nil
}

func (c *Client) SetFields(_ context.Context, key string, fields map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, err := c.hashEntry(key)
	if err != nil {
		return err
	}
	for f, v := range fields {
		e.hash[f] = toString(v)
	}
	return nil
}

// toString mirrors how redis stores values
func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
