package preference

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/amirasaad/stakesim/pkg/asset"
	"github.com/amirasaad/stakesim/pkg/preference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "prefs.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestPreferenceRepository_SQLite(t *testing.T) {
	db := newSQLiteDB(t)
	require.NoError(t, Migrate(db))
	ctx := context.Background()
	r := New(db)

	require.NoError(t, r.Upsert(ctx, preference.Preferences{
		ClientID: "c", Theme: preference.ThemeDark, Fiat: asset.USD,
	}))
	require.NoError(t, r.Upsert(ctx, preference.Preferences{
		ClientID: "c", Theme: preference.ThemeDark, Fiat: asset.EUR,
	}))

	got, err := r.Get(ctx, "c")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, asset.EUR, got.Fiat)

	var count int64
	require.NoError(t, db.Model(&Preference{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
