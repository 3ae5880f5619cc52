package clickhouse

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
)

// Protocol selects the ClickHouse wire protocol.
type Protocol string

const (
	ProtocolHTTP   Protocol = "http"
	ProtocolNative Protocol = "native"
)

const (
	defaultIdleTimeout = 2 * time.Second
	defaultKeepAlive   = 290 * time.Second
	defaultDialTimeout = 10 * time.Second
)

// Config holds the connection settings of a ClickHouse client.
type Config struct {
	URL      string // host name, optionally with an http:// or https:// scheme
	Port     int
	User     string
	Password string
	Database string
	HTTPS    bool
	Protocol Protocol

	// IdleTimeout closes pooled HTTP connections idle for longer than this.
	// Servers and load balancers in front of ClickHouse close idle sockets
	// aggressively, so the default is short.
	IdleTimeout  time.Duration
	KeepAlive    time.Duration
	DialTimeout  time.Duration
	MaxOpenConns int
	MaxIdleConns int
}

// ConfigFromEnv reads CLICKHOUSE_URL, CLICKHOUSE_PORT, CLICKHOUSE_USER,
// CLICKHOUSE_PASS and the optional CLICKHOUSE_DATABASE, CLICKHOUSE_HTTPS and
// CLICKHOUSE_PROTOCOL variables.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		URL:      os.Getenv("CLICKHOUSE_URL"),
		User:     os.Getenv("CLICKHOUSE_USER"),
		Password: os.Getenv("CLICKHOUSE_PASS"),
		Database: os.Getenv("CLICKHOUSE_DATABASE"),
		Protocol: Protocol(strings.ToLower(os.Getenv("CLICKHOUSE_PROTOCOL"))),
	}

	if v := os.Getenv("CLICKHOUSE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("clickhouse: CLICKHOUSE_PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("CLICKHOUSE_HTTPS"); v != "" {
		https, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("clickhouse: CLICKHOUSE_HTTPS %q: %w", v, err)
		}
		cfg.HTTPS = https
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// normalize strips a scheme from URL, turning https:// into HTTPS, and fills defaults.
func (c *Config) normalize() {
	switch {
	case strings.HasPrefix(c.URL, "https://"):
		c.URL = strings.TrimPrefix(c.URL, "https://")
		c.HTTPS = true
	case strings.HasPrefix(c.URL, "http://"):
		c.URL = strings.TrimPrefix(c.URL, "http://")
	}
	c.URL = strings.TrimRight(c.URL, "/")

	if c.Protocol == "" {
		c.Protocol = ProtocolHTTP
	}
	if c.Port == 0 {
		c.Port = c.defaultPort()
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = defaultIdleTimeout
	}
	if c.KeepAlive == 0 {
		c.KeepAlive = defaultKeepAlive
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = defaultDialTimeout
	}
}

func (c *Config) defaultPort() int {
	switch {
	case c.Protocol == ProtocolNative && c.HTTPS:
		return 9440
	case c.Protocol == ProtocolNative:
		return 9000
	case c.HTTPS:
		return 8443
	default:
		return 8123
	}
}

// Validate checks that the configuration can be turned into client options.
func (c Config) Validate() error {
	if c.URL == "" {
		return errors.New("clickhouse: CLICKHOUSE_URL is required")
	}
	if c.Protocol != ProtocolHTTP && c.Protocol != ProtocolNative {
		return fmt.Errorf("clickhouse: unsupported protocol %q", c.Protocol)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("clickhouse: invalid port %d", c.Port)
	}
	return nil
}

// Addr is host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.URL, strconv.Itoa(c.Port))
}

// Options converts c into clickhouse-go options.
func (c Config) Options() (*ch.Options, error) {
	c.normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	dialer := &net.Dialer{Timeout: c.DialTimeout, KeepAlive: c.KeepAlive}
	opts := &ch.Options{
		Addr: []string{c.Addr()},
		Auth: ch.Auth{
			Database: c.Database,
			Username: c.User,
			Password: c.Password,
		},
		DialTimeout:  c.DialTimeout,
		MaxOpenConns: c.MaxOpenConns,
		MaxIdleConns: c.MaxIdleConns,
	}
	if c.HTTPS {
		opts.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	switch c.Protocol {
	case ProtocolNative:
		opts.Protocol = ch.Native
		if !c.HTTPS {
			opts.DialContext = func(ctx context.Context, addr string) (net.Conn, error) {
				return dialer.DialContext(ctx, "tcp", addr)
			}
		}
	default:
		opts.Protocol = ch.HTTP
		// The HTTP transport takes its idle timeout from ConnMaxLifetime.
		opts.ConnMaxLifetime = c.IdleTimeout
		opts.DialContext = func(ctx context.Context, addr string) (net.Conn, error) {
			return dialer.DialContext(ctx, "tcp", addr)
		}
	}
	return opts, nil
}
