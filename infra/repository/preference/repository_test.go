package preference

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/amirasaad/stakesim/pkg/asset"
	"github.com/amirasaad/stakesim/pkg/preference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDb.Close() })

	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestPreferenceRepository_Get(t *testing.T) {
	db, mock := newMockDB(t)
	r := New(db)
	updated := time.Now().UTC().Truncate(time.Second)

	mock.ExpectQuery(`SELECT \* FROM "preferences" WHERE client_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"client_id", "theme", "fiat", "created_at", "updated_at"}).
			AddRow("client-1", "dark", "eur", updated, updated))

	p, err := r.Get(context.Background(), "client-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "client-1", p.ClientID)
	assert.Equal(t, preference.ThemeDark, p.Theme)
	assert.Equal(t, asset.EUR, p.Fiat)
	assert.Equal(t, updated, p.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreferenceRepository_GetMissing(t *testing.T) {
	db, mock := newMockDB(t)
	r := New(db)

	mock.ExpectQuery(`SELECT \* FROM "preferences" WHERE client_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"client_id", "theme", "fiat", "created_at", "updated_at"}))

	p, err := r.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreferenceRepository_GetError(t *testing.T) {
	db, mock := newMockDB(t)
	r := New(db)

	mock.ExpectQuery(`SELECT \* FROM "preferences"`).
		WillReturnError(errors.New("connection refused"))

	p, err := r.Get(context.Background(), "client-1")
	assert.Error(t, err)
	assert.Nil(t, p)
}

func TestPreferenceRepository_Upsert(t *testing.T) {
	db, mock := newMockDB(t)
	r := New(db)

	mock.ExpectExec(`INSERT INTO "preferences" (.+) VALUES (.+) ON CONFLICT \("client_id"\) DO UPDATE SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := r.Upsert(context.Background(), preference.Preferences{
		ClientID: "client-1",
		Theme:    preference.ThemeDark,
		Fiat:     asset.EUR,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectExec(`INSERT INTO "preferences"`).
		WillReturnError(errors.New("disk full"))
	err = r.Upsert(context.Background(), preference.Defaults("client-2"))
	assert.Error(t, err)
}
