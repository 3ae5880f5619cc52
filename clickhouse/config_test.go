package clickhouse

import (
	"testing"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("CLICKHOUSE_URL", "https://ch.example.com/")
	t.Setenv("CLICKHOUSE_PORT", "8443")
	t.Setenv("CLICKHOUSE_USER", "reader")
	t.Setenv("CLICKHOUSE_PASS", "secret")
	t.Setenv("CLICKHOUSE_DATABASE", "ethereum")
	t.Setenv("CLICKHOUSE_HTTPS", "")
	t.Setenv("CLICKHOUSE_PROTOCOL", "")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "ch.example.com", cfg.URL)
	assert.Equal(t, 8443, cfg.Port)
	assert.Equal(t, "reader", cfg.User)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, "ethereum", cfg.Database)
	assert.True(t, cfg.HTTPS)
	assert.Equal(t, ProtocolHTTP, cfg.Protocol)
	assert.Equal(t, 2*time.Second, cfg.IdleTimeout)
	assert.Equal(t, 290*time.Second, cfg.KeepAlive)
	assert.Equal(t, "ch.example.com:8443", cfg.Addr())
}

func TestConfigFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing url", map[string]string{"CLICKHOUSE_URL": ""}},
		{"bad port", map[string]string{"CLICKHOUSE_URL": "localhost", "CLICKHOUSE_PORT": "eighty"}},
		{"bad https", map[string]string{"CLICKHOUSE_URL": "localhost", "CLICKHOUSE_HTTPS": "maybe"}},
		{"bad protocol", map[string]string{"CLICKHOUSE_URL": "localhost", "CLICKHOUSE_PROTOCOL": "grpc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"CLICKHOUSE_URL", "CLICKHOUSE_PORT", "CLICKHOUSE_HTTPS", "CLICKHOUSE_PROTOCOL"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := ConfigFromEnv()
			assert.Error(t, err)
		})
	}
}

func TestConfigDefaultPorts(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"http", Config{URL: "localhost"}, "localhost:8123"},
		{"https", Config{URL: "https://localhost"}, "localhost:8443"},
		{"native", Config{URL: "localhost", Protocol: ProtocolNative}, "localhost:9000"},
		{"native tls", Config{URL: "localhost", Protocol: ProtocolNative, HTTPS: true}, "localhost:9440"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := tt.cfg.Options()
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, opts.Addr)
		})
	}
}

func TestConfigOptionsHTTP(t *testing.T) {
	cfg := Config{URL: "http://localhost", User: "default", Password: "pw", Database: "eth"}

	opts, err := cfg.Options()
	require.NoError(t, err)

	assert.Equal(t, ch.HTTP, opts.Protocol)
	assert.Nil(t, opts.TLS)
	assert.Equal(t, "default", opts.Auth.Username)
	assert.Equal(t, "pw", opts.Auth.Password)
	assert.Equal(t, "eth", opts.Auth.Database)
	assert.Equal(t, 2*time.Second, opts.ConnMaxLifetime)
	assert.NotNil(t, opts.DialContext)
}

func TestConfigOptionsNativeTLS(t *testing.T) {
	cfg := Config{URL: "localhost", Protocol: ProtocolNative, HTTPS: true}

	opts, err := cfg.Options()
	require.NoError(t, err)

	assert.Equal(t, ch.Native, opts.Protocol)
	assert.NotNil(t, opts.TLS)
	assert.Nil(t, opts.DialContext)
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{}.Validate())
	assert.Error(t, Config{URL: "x", Protocol: ProtocolHTTP, Port: 70000}.Validate())
	assert.NoError(t, Config{URL: "x", Protocol: ProtocolNative, Port: 9000}.Validate())
}
