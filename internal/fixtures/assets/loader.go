package assets

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/amirasaad/stakesim/pkg/asset"
)

//go:embed assets.csv
var assetsCSV string

const expectedColumns = 4

// LoadAssetsCSV loads the asset list from a CSV file or, if path is empty,
// from the embedded fixture.
func LoadAssetsCSV(path string) ([]asset.Asset, error) {
	var r io.Reader

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		r = f
	} else {
		r = strings.NewReader(assetsCSV)
	}

	return parseAssetsCSV(r)
}

// LoadCatalog builds the catalog from the asset CSV and the supported fiats.
func LoadCatalog(path string) (*asset.Catalog, error) {
	assets, err := LoadAssetsCSV(path)
	if err != nil {
		return nil, err
	}
	return asset.NewCatalog(assets, asset.Fiats)
}

func parseAssetsCSV(r io.Reader) ([]asset.Asset, error) {
	csvReader := csv.NewReader(r)
	csvReader.TrimLeadingSpace = true
	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, err
	}

	var out []asset.Asset
	for i, rec := range records {
		if i == 0 {
			if len(rec) < expectedColumns {
				return nil, errors.New(fmt.Sprintf(
					"invalid CSV format: expected at least %d columns, got %d",
					expectedColumns,
					len(rec),
				))
			}
			continue
		}

		// Skip malformed rows
		if len(rec) < expectedColumns {
			continue
		}

		apy, err := strconv.ParseFloat(strings.TrimSpace(rec[3]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid default_apy %q: %w", i+1, rec[3], err)
		}
		out = append(out, asset.Asset{
			ID:         strings.TrimSpace(rec[0]),
			Symbol:     strings.ToUpper(strings.TrimSpace(rec[1])),
			Name:       strings.TrimSpace(rec[2]),
			DefaultAPY: apy,
		})
	}
	return out, nil
}
