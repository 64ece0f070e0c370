// Package preference holds the per-client display settings.
package preference

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amirasaad/stakesim/pkg/asset"
)

var ErrUnknownTheme = errors.New("unknown theme")

// Theme is the dashboard color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// DefaultTheme applies when nothing is stored.
const DefaultTheme = ThemeLight

// ParseTheme normalizes s and checks it against the supported themes.
func ParseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTheme, s)
	}
}

// Preferences are the stored settings of one client.
type Preferences struct {
	ClientID  string         `json:"client_id"`
	Theme     Theme          `json:"theme"`
	Fiat      asset.FiatCode `json:"fiat"`
	UpdatedAt time.Time      `json:"updated_at,omitempty"`
}

// Defaults returns the settings of a client that never saved any.
func Defaults(clientID string) Preferences {
	return Preferences{ClientID: clientID, Theme: DefaultTheme, Fiat: asset.DefaultFiat}
}
