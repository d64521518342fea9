package client

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/errors"
)

// Config is the session configuration, loadable from a TOML file.
type Config struct {
	Addr     string `toml:"addr"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`

	Charset      string        `toml:"charset"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`

	// ResolveServerZone appends the time-zone variables to the init
	// discovery query and resolves the server zone from them.
	ResolveServerZone bool `toml:"resolve_server_zone"`

	// PreserveInstants converts decoded date-times to the client zone
	// keeping the instant.
	PreserveInstants bool `toml:"preserve_instants"`

	// TinyIntIsBool decodes TINYINT(1) columns as booleans.
	TinyIntIsBool bool `toml:"tinyint1_is_bool"`

	StmtCacheSize  int `toml:"stmt_cache_size"`
	QueryCacheSize int `toml:"query_cache_size"`
}

func NewConfigWithFile(name string) (*Config, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Trace(err)
	}

	return NewConfig(string(data))
}

func NewConfig(data string) (*Config, error) {
	var c Config

	if _, err := toml.Decode(data, &c); err != nil {
		return nil, errors.Trace(err)
	}

	return &c, nil
}

// NewDefaultConfig returns a config with sane defaults for a local server.
func NewDefaultConfig() *Config {
	return &Config{
		Addr:              "127.0.0.1:3306",
		User:              "root",
		ResolveServerZone: true,
	}
}

// ConnectWithConfig opens a session from a Config.
func ConnectWithConfig(cfg *Config) (*Conn, error) {
	options := []Option{
		func(c *Conn) error {
			c.ReadTimeout = cfg.ReadTimeout
			c.WriteTimeout = cfg.WriteTimeout
			c.resolveServerZone = cfg.ResolveServerZone
			c.preserveInstants = cfg.PreserveInstants
			c.tinyIntIsBool = cfg.TinyIntIsBool
			if cfg.StmtCacheSize > 0 {
				c.stmtCacheSize = cfg.StmtCacheSize
			}
			if cfg.QueryCacheSize > 0 {
				c.queryCacheSize = cfg.QueryCacheSize
			}
			if cfg.Charset != "" {
				c.charset = cfg.Charset
			}
			return nil
		},
	}

	return Connect(cfg.Addr, cfg.User, cfg.Password, cfg.Database, options...)
}

// WithPreparePredicate installs the prefer-prepare predicate driving the
// statement factory.
func WithPreparePredicate(prepare func(sql string) bool) Option {
	return func(c *Conn) error {
		c.prepare = prepare
		return nil
	}
}

// WithServerZoneDiscovery toggles server time-zone resolution during init.
func WithServerZoneDiscovery(on bool) Option {
	return func(c *Conn) error {
		c.resolveServerZone = on
		return nil
	}
}

// WithPreserveInstants makes decoded date-times carry the client zone with
// the instant preserved.
func WithPreserveInstants(on bool) Option {
	return func(c *Conn) error {
		c.preserveInstants = on
		return nil
	}
}

// WithClientZone sets the client zone used by instant-preserving
// conversions.
func WithClientZone(zone *time.Location) Option {
	return func(c *Conn) error {
		if zone == nil {
			return errors.New("client zone must not be nil")
		}
		c.clientZone = zone
		return nil
	}
}

// WithTinyIntBool decodes TINYINT(1) columns as booleans.
func WithTinyIntBool(on bool) Option {
	return func(c *Conn) error {
		c.tinyIntIsBool = on
		return nil
	}
}

// WithStmtCacheSize bounds the prepared-statement cache.
func WithStmtCacheSize(size int) Option {
	return func(c *Conn) error {
		if size <= 0 {
			return errors.New("stmt cache size must be positive")
		}
		c.stmtCacheSize = size
		return nil
	}
}

// WithQueryCache shares a query cache between connections.
func WithQueryCache(qc *QueryCache) Option {
	return func(c *Conn) error {
		if qc == nil {
			return errors.New("query cache must not be nil")
		}
		c.queryCache = qc
		return nil
	}
}
