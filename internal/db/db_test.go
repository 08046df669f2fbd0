package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"

	"cmms-backend/config"
	"cmms-backend/internal/model"
)

func TestInit_SQLite(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "cmms.db"),
	}

	gormDB, err := Init(cfg, zap.NewNop())
	require.NoError(t, err)
	sqlDB, _ := gormDB.DB()
	defer sqlDB.Close()

	for _, m := range Models() {
		assert.True(t, gormDB.Migrator().HasTable(m), "%T should be migrated", m)
	}

	var fk int
	require.NoError(t, gormDB.Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	assert.Equal(t, 1, fk)
}

func TestInit_SQLite_DeleteAssetNullsWorkOrder(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "cmms.db"),
	}
	gormDB, err := Init(cfg, zap.NewNop())
	require.NoError(t, err)
	sqlDB, _ := gormDB.DB()
	defer sqlDB.Close()

	asset := model.Asset{Name: "Compressor"}
	require.NoError(t, gormDB.Create(&asset).Error)
	wo := model.WorkOrder{WONo: "WO-20250110-001", Type: model.WorkOrderCM, Title: "Leak", Status: model.StatusOpen, Priority: model.PriorityMedium, AssetID: &asset.ID}
	require.NoError(t, gormDB.Create(&wo).Error)

	require.NoError(t, gormDB.Delete(&asset).Error)

	var reloaded model.WorkOrder
	require.NoError(t, gormDB.First(&reloaded, wo.ID).Error)
	assert.Nil(t, reloaded.AssetID)
}

func TestInit_PostgresMissingSecrets(t *testing.T) {
	_, err := Init(&config.DatabaseConfig{Driver: config.DriverPostgres}, zap.NewNop())
	assert.ErrorIs(t, err, config.ErrMissingSecrets)
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, logLevel("silent"))
	assert.Equal(t, logger.Info, logLevel("INFO"))
	assert.Equal(t, logger.Warn, logLevel(""))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "cmms.db?_foreign_keys=on", sqliteDSN("cmms.db"))
	assert.Equal(t, "file::memory:?cache=shared&_foreign_keys=on", sqliteDSN("file::memory:?cache=shared"))
}
