package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_ValoresPorDefecto(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, 25, cfg.DB.MaxConns)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Inventory.AllowNegativeStock)
	assert.Equal(t, 3, cfg.Inventory.MaxRetries)
	assert.Equal(t, 20*time.Millisecond, cfg.Inventory.InitialBackoff)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
}

func TestFromViper_Sobrescrituras(t *testing.T) {
	v := viper.New()
	v.Set("DB_DRIVER", "SQLite")
	v.Set("DB_SQLITE_PATH", "/tmp/ledger.db")
	v.Set("HTTP_PORT", "9090")
	v.Set("REDIS_ADDR", "localhost:6379")
	v.Set("REDIS_REFERENCE_TTL", "2h")
	v.Set("INVENTORY_ALLOW_NEGATIVE_STOCK", true)
	v.Set("INVENTORY_INITIAL_BACKOFF", "50")
	v.Set("INVENTORY_MAX_BACKOFF", "1s")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, "/tmp/ledger.db", cfg.DB.SQLitePath)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 2*time.Hour, cfg.Redis.TTL)
	assert.True(t, cfg.Inventory.AllowNegativeStock)
	assert.Equal(t, 50*time.Millisecond, cfg.Inventory.InitialBackoff)
	assert.Equal(t, time.Second, cfg.Inventory.MaxBackoff)
}

func TestFromViper_Validaciones(t *testing.T) {
	v := viper.New()
	v.Set("DB_DRIVER", "mysql")
	_, err := fromViper(v)
	assert.ErrorContains(t, err, "DB_DRIVER")

	v = viper.New()
	v.Set("APP_ENV", "production")
	_, err = fromViper(v)
	assert.ErrorContains(t, err, "JWT_SECRET")

	v = viper.New()
	v.Set("INVENTORY_MAX_RETRIES", -1)
	_, err = fromViper(v)
	assert.Error(t, err)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "ledger", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/ledger?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgresql://x@y/z"
	assert.Equal(t, "postgresql://x@y/z", c.ConnectionString())
}
