package database

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/victorcamacaro253/farmacia-web/pkg/storage"
)

func TestMigrateModels(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, MigrateModels(db, storage.Models()...))
	assert.True(t, db.Migrator().HasTable("kv_entries"))

	assert.NoError(t, Close(db))
}

func TestMigrateModelsWithoutConnection(t *testing.T) {
	assert.Error(t, MigrateModels(nil, storage.Models()...))
}
