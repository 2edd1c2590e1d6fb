package config_test

import (
	"LandLedger/internal/config"
	"LandLedger/internal/store"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const landContract = "0x1111111111111111111111111111111111111111"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LAND_LAND_CONTRACT", "0xABCDEF0000000000000000000000000000000001")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, config.DriverPostgres, cfg.StoreDriver)
	require.Equal(t, "0xabcdef0000000000000000000000000000000001", cfg.LandContract)
	require.Equal(t, 10*time.Second, cfg.CallTimeout)
	require.Equal(t, 100000, cfg.CacheCapacity)
	require.Equal(t, ":9090", cfg.GRPCAddr)
	require.Equal(t, cfg.PostgresDSN, cfg.StoreDSN())
	require.False(t, cfg.EnableInject)
}

func TestLoadSQLite(t *testing.T) {
	t.Setenv("LAND_LAND_CONTRACT", landContract)
	t.Setenv("LAND_STORE_DRIVER", "SQLite")
	t.Setenv("LAND_SQLITE_PATH", "/tmp/land.db")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, config.DriverSQLite, cfg.StoreDriver)
	require.Equal(t, "/tmp/land.db", cfg.StoreDSN())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing contract", map[string]string{}, "LAND_LAND_CONTRACT"},
		{"bad contract", map[string]string{"LAND_LAND_CONTRACT": "land"}, "invalid address"},
		{"unknown driver", map[string]string{"LAND_LAND_CONTRACT": landContract, "LAND_STORE_DRIVER": "mongo"}, "unknown driver"},
		{"bad duration", map[string]string{"LAND_LAND_CONTRACT": landContract, "LAND_CALL_TIMEOUT": "soon"}, "parse env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestValidateReportsMissingBackend(t *testing.T) {
	cfg := config.Config{
		StoreDriver:  config.DriverPostgres,
		LandContract: landContract,
		EthRPCURL:    "http://localhost:8545",
		CallTimeout:  time.Second,
	}
	require.ErrorIs(t, cfg.Validate(), store.ErrNotConfigured)
}
