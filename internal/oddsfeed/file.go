package oddsfeed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yourusername/squares-ev/internal/models"
)

// LoadMatrixFile reads a market from disk. Two layouts are accepted: the
// feed response shape, or a bare 10x10 array of integers where null marks a
// missing quotation.
func LoadMatrixFile(path string) (*models.MarketOdds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewFeedError(path, ErrCodeNotFound, "failed to read odds file", err)
	}

	odds, err := ParseMatrix(data)
	if err != nil {
		return nil, NewFeedError(path, ErrCodeInvalidData, "failed to parse odds file", err)
	}
	if odds.Market == "" {
		odds.Market = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return odds, nil
}

// ParseMatrix decodes either accepted layout from raw JSON.
func ParseMatrix(data []byte) (*models.MarketOdds, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	switch trimmed[0] {
	case '{':
		var body SquaresResponse
		if err := json.Unmarshal(trimmed, &body); err != nil {
			return nil, err
		}
		return body.toMarketOdds()
	case '[':
		var rows [][]*int
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, err
		}
		if len(rows) != models.GridSize {
			return nil, fmt.Errorf("expected %d rows, got %d", models.GridSize, len(rows))
		}
		out := &models.MarketOdds{}
		for away, row := range rows {
			if len(row) != models.GridSize {
				return nil, fmt.Errorf("row %d: expected %d columns, got %d", away, models.GridSize, len(row))
			}
			copy(out.Matrix[away][:], row)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a JSON object or array")
	}
}
