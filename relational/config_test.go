package relational

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in      string
		want    Dialect
		wantErr bool
	}{
		{"postgres", Postgres, false},
		{"PostgreSQL", Postgres, false},
		{" mysql ", MySQL, false},
		{"sqlite", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDialect(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDriverName(t *testing.T) {
	assert.Equal(t, "pgx", Postgres.DriverName())
	assert.Equal(t, "mysql", MySQL.DriverName())
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DATABASE_DIALECT", "mysql")
	t.Setenv("DATABASE_DSN", "root:pw@tcp(localhost:3306)/app")
	t.Setenv("DATABASE_MAX_IDLE_TIME", "30s")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, MySQL, cfg.Dialect)
	assert.Equal(t, "root:pw@tcp(localhost:3306)/app", cfg.DSN)
	assert.Equal(t, 30*time.Second, cfg.MaxIdleTime)
}

func TestConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("DATABASE_DIALECT", "postgres")
	t.Setenv("DATABASE_DSN", "postgres://localhost/app")
	t.Setenv("DATABASE_MAX_IDLE_TIME", "")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.MaxIdleTime)
}

func TestConfigFromEnvErrors(t *testing.T) {
	t.Setenv("DATABASE_DIALECT", "mysql")
	t.Setenv("DATABASE_DSN", "")
	_, err := ConfigFromEnv()
	assert.Error(t, err)

	t.Setenv("DATABASE_DSN", "dsn")
	t.Setenv("DATABASE_MAX_IDLE_TIME", "soon")
	_, err = ConfigFromEnv()
	assert.Error(t, err)

	t.Setenv("DATABASE_DIALECT", "oracle")
	_, err = ConfigFromEnv()
	assert.Error(t, err)
}
