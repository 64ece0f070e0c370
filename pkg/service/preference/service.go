// Package preference provides the read and update logic for client
// preferences. Reads never fail: a missing record or a broken store yields
// the defaults.
package preference

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/amirasaad/stakesim/pkg/asset"
	"github.com/amirasaad/stakesim/pkg/preference"
	repo "github.com/amirasaad/stakesim/pkg/repository/preference"
)

var ErrMissingClientID = errors.New("client id is required")

// Update is a partial change; empty fields keep their stored value.
type Update struct {
	Theme string
	Fiat  string
}

// Service reads and writes client preferences.
type Service struct {
	repo   repo.Repository
	logger *slog.Logger
}

// New creates a new Service with a repository and logger.
func New(
	r repo.Repository,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   r,
		logger: logger.With(slog.String("component", "preferences")),
	}
}

// Get returns the stored preferences of clientID, or the defaults.
func (s *Service) Get(ctx context.Context, clientID string) preference.Preferences {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" || s.repo == nil {
		return preference.Defaults(clientID)
	}
	p, err := s.repo.Get(ctx, clientID)
	if err != nil {
		s.logger.Warn("Preference lookup failed, using defaults", "client", clientID, "error", err)
		return preference.Defaults(clientID)
	}
	if p == nil {
		return preference.Defaults(clientID)
	}
	return *p
}

// Update validates u, merges it into the current preferences and stores the
// result.
func (s *Service) Update(ctx context.Context, clientID string, u Update) (preference.Preferences, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return preference.Preferences{}, ErrMissingClientID
	}
	p := s.Get(ctx, clientID)
	if u.Theme != "" {
		theme, err := preference.ParseTheme(u.Theme)
		if err != nil {
			return preference.Preferences{}, err
		}
		p.Theme = theme
	}
	if u.Fiat != "" {
		fiat, err := asset.ParseFiat(u.Fiat)
		if err != nil {
			return preference.Preferences{}, err
		}
		p.Fiat = fiat
	}
	if s.repo == nil {
		return p, nil
	}
	if err := s.repo.Upsert(ctx, p); err != nil {
		s.logger.Error("Failed to store preferences", "client", clientID, "error", err)
		return preference.Preferences{}, err
	}
	s.logger.Info("Preferences updated", "client", clientID, "theme", p.Theme, "fiat", p.Fiat)
	return p, nil
}
