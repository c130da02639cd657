package kvdb

import (
	"net"
	"strconv"
)

// Conf is read from config/.kv-database.json
type Conf struct {
	Type      string `json:"type"` // "redis" | "memory"
	Host      string `json:"host"`
	Port      int    `json:"port"`
	PW        string `json:"pw"`
	DB        int    `json:"db"`
	KeyPrefix string `json:"key_prefix"` // e.g. "docgen:"
}

// Addr defaults to localhost:6379
func (c *Conf) Addr() string {
	host, port := c.Host, c.Port
	if host == "" {
		host = "localhost"
	}
	if port == 0 {
		port = 6379
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
