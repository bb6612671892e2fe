package database_test

import (
	"testing"

	"github.com/blues/launchpad/internal/config"
	"github.com/blues/launchpad/internal/database"
	"github.com/blues/launchpad/internal/model"
	"github.com/stretchr/testify/require"
)

func TestInitSqlite(t *testing.T) {
	db, err := database.Init(config.DatabaseConfig{Driver: "sqlite", Path: "file:database_init?mode=memory&cache=shared"})
	require.NoError(t, err)

	for _, m := range model.All() {
		require.True(t, db.Migrator().HasTable(m))
	}
	require.True(t, db.Migrator().HasTable("campaign"))
	require.True(t, db.Migrator().HasTable("token_lock"))
}

func TestInitRejectsUnknownDriver(t *testing.T) {
	_, err := database.Init(config.DatabaseConfig{Driver: "mysql"})
	require.Error(t, err)
}

func TestReset(t *testing.T) {
	db, err := database.Init(config.DatabaseConfig{Driver: "sqlite", Path: "file:database_reset?mode=memory&cache=shared"})
	require.NoError(t, err)

	require.NoError(t, db.Create(&model.EventModel{ContractAddress: "0x1", EventType: "TokensBought", Seq: 1}).Error)
	require.NoError(t, database.Reset(db))

	var n int64
	require.NoError(t, db.Model(&model.EventModel{}).Count(&n).Error)
	require.Zero(t, n)
}
