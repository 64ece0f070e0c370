package preference

import (
	"context"
	"errors"

	"github.com/amirasaad/stakesim/pkg/asset"
	"github.com/amirasaad/stakesim/pkg/preference"
	repo "github.com/amirasaad/stakesim/pkg/repository/preference"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) repo.Repository {
	return &repository{db: db}
}

func (r *repository) Get(
	ctx context.Context,
	clientID string,
) (*preference.Preferences, error) {
	var m Preference
	if err := r.db.WithContext(
		ctx,
	).Where("client_id = ?", clientID).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return mapModelToDomain(&m), nil
}

func (r *repository) Upsert(
	ctx context.Context,
	p preference.Preferences,
) error {
	m := &Preference{
		ClientID: p.ClientID,
		Theme:    string(p.Theme),
		Fiat:     string(p.Fiat),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"theme", "fiat", "updated_at"}),
	}).Create(m).Error
}

func mapModelToDomain(m *Preference) *preference.Preferences {
	return &preference.Preferences{
		ClientID:  m.ClientID,
		Theme:     preference.Theme(m.Theme),
		Fiat:      asset.FiatCode(m.Fiat),
		UpdatedAt: m.UpdatedAt,
	}
}

var _ repo.Repository = (*repository)(nil)
