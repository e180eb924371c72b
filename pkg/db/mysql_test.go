package db

import (
	"testing"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/devfolio-sync/cfg"
)

func TestDSN(t *testing.T) {
	config := cfg.Defaults()
	config.Mysql.Username = "sync"
	config.Mysql.Password = "p@ss"
	config.Mysql.Host = "db.internal"
	config.Mysql.Port = "3307"

	m, err := NewMysql(config)
	require.NoError(t, err)

	parsed, err := mysqlDriver.ParseDSN(m.DSN())
	require.NoError(t, err)
	assert.Equal(t, "sync", parsed.User)
	assert.Equal(t, "p@ss", parsed.Passwd)
	assert.Equal(t, "db.internal:3307", parsed.Addr)
	assert.Equal(t, "devfolio", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.Equal(t, 5*time.Second, parsed.Timeout)
}

func TestDbDisabled(t *testing.T) {
	m, _ := NewMysql(cfg.Defaults())
	assert.False(t, m.Enabled())

	_, err := m.Db()
	assert.ErrorIs(t, err, ErrDisabled)
	assert.ErrorIs(t, m.Ping(), ErrDisabled)
	assert.NoError(t, m.Close())
}

func TestPingUnreachable(t *testing.T) {
	config := cfg.Defaults()
	config.Mysql.Enabled = true
	config.Mysql.Host = "127.0.0.1"
	config.Mysql.Port = "1"

	m, _ := NewMysql(config)
	defer m.Close()
	assert.Error(t, m.Ping())
}
