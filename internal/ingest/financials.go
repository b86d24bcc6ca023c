package ingest

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/sells-group/compgraph/internal/resolve"
)

// LoadFinancials reads the financial-facts file. It never fails: a missing
// or unreadable file, invalid JSON, or a document without an "entities"
// object yields an empty table and a warning. Individual records that do
// not decode are skipped.
func LoadFinancials(path string) resolve.FinancialTable {
	table := make(resolve.FinancialTable)
	log := zap.L().With(zap.String("path", path))

	if path == "" {
		log.Warn("ingest: no financial facts path configured, continuing without financials")
		return table
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn("ingest: financial facts file not found, continuing without financials")
		} else {
			log.Warn("ingest: financial facts file unreadable, continuing without financials", zap.Error(err))
		}
		return table
	}

	if !gjson.ValidBytes(data) {
		log.Warn("ingest: financial facts file is not valid JSON, continuing without financials")
		return table
	}

	entities := gjson.GetBytes(data, "entities")
	if !entities.IsObject() {
		log.Warn("ingest: financial facts file has no entities object, continuing without financials")
		return table
	}

	skipped := 0
	entities.ForEach(func(key, value gjson.Result) bool {
		var rec resolve.FinancialRecord
		if err := json.Unmarshal([]byte(value.Raw), &rec); err != nil {
			skipped++
			log.Warn("ingest: skipping malformed financial record",
				zap.String("key", key.String()),
				zap.Error(err),
			)
			return true
		}
		table[key.String()] = &rec
		return true
	})

	log.Info("ingest: financial facts loaded",
		zap.Int("records", len(table)),
		zap.Int("skipped", skipped),
	)
	return table
}
