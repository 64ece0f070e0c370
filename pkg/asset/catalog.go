package asset

import (
	"fmt"
	"strings"
)

// Catalog is the immutable set of assets and fiat codes known at startup.
type Catalog struct {
	assets []Asset
	byID   map[string]Asset
	fiats  []FiatCode
}

// NewCatalog builds a catalog. Asset order is preserved; the first asset is
// the default selection.
func NewCatalog(assets []Asset, fiats []FiatCode) (*Catalog, error) {
	if len(assets) == 0 {
		return nil, ErrEmptyCatalog
	}
	c := &Catalog{
		assets: make([]Asset, 0, len(assets)),
		byID:   make(map[string]Asset, len(assets)),
		fiats:  append([]FiatCode(nil), fiats...),
	}
	for _, a := range assets {
		id := strings.TrimSpace(a.ID)
		if id == "" {
			return nil, fmt.Errorf("asset with empty id (%q)", a.Name)
		}
		if _, dup := c.byID[id]; dup {
			return nil, fmt.Errorf("duplicate asset id %q", id)
		}
		if a.DefaultAPY <= 0 {
			return nil, fmt.Errorf("asset %q: default APY must be positive", id)
		}
		a.ID = id
		c.assets = append(c.assets, a)
		c.byID[id] = a
	}
	if len(c.fiats) == 0 {
		c.fiats = append(c.fiats, Fiats...)
	}
	return c, nil
}

// Assets returns a copy of the assets in catalog order.
func (c *Catalog) Assets() []Asset {
	return append([]Asset(nil), c.assets...)
}

// Fiats returns a copy of the supported fiat codes.
func (c *Catalog) Fiats() []FiatCode {
	return append([]FiatCode(nil), c.fiats...)
}

// Default is the first asset of the catalog.
func (c *Catalog) Default() Asset {
	return c.assets[0]
}

// Lookup finds an asset by id.
func (c *Catalog) Lookup(id string) (Asset, error) {
	a, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return Asset{}, fmt.Errorf("%w: %q", ErrUnknownAsset, id)
	}
	return a, nil
}

// IDs lists every asset id, in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.assets))
	for i, a := range c.assets {
		ids[i] = a.ID
	}
	return ids
}

// FiatStrings lists the fiat codes as plain strings.
func (c *Catalog) FiatStrings() []string {
	out := make([]string, len(c.fiats))
	for i, f := range c.fiats {
		out[i] = string(f)
	}
	return out
}

// ParseFiat resolves s against this catalog's fiat set.
func (c *Catalog) ParseFiat(s string) (FiatCode, error) {
	code := FiatCode(strings.ToLower(strings.TrimSpace(s)))
	for _, f := range c.fiats {
		if f == code {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFiat, s)
}
