package sqldb

type Conf struct {
	Type     string `json:"type"` // mysql, pgsql
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	PW       string `json:"pw"`
	DB       string `json:"db"`
	TZ       string `json:"tz"`        // Connection Timezone
	DSN      string `json:"dsn"`       // To Overwrite Default DSN
	MaxConns int    `json:"max_conns"` // 0 = driver default of 10
}

// PoolSize returns the configured connection cap
func (c *Conf) PoolSize() int {
	if c.MaxConns <= 0 {
		return 10
	}
	return c.MaxConns
}

// Timezone returns the connection timezone, UTC when unset
func (c *Conf) Timezone() string {
	if c.TZ == "" {
		return "UTC"
	}
	return c.TZ
}
