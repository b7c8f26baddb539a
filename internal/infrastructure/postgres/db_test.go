package postgres

import (
	"context"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoolWithConfigInvalidURL(t *testing.T) {
	_, err := NewPoolWithConfig(context.Background(), PoolConfig{DatabaseURL: "not-a-url"})
	assert.Error(t, err)
}

func TestNewPoolWithConfigPingFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := NewPoolWithConfig(ctx, PoolConfig{
		DatabaseURL:    "postgres://invalid:5432/db",
		MaxConns:       1,
		ConnectTimeout: time.Second,
	})
	assert.Error(t, err)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, name := range names {
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected migration file %s", name)
		}
	}
	assert.Equal(t, ups, downs)
}
