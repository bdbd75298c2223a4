// Package ingest builds the in-memory record index from the tabular
// decision source.
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"visa-status-service/internal/common/config"
	"visa-status-service/internal/common/errors"
	"visa-status-service/internal/common/logger"
	"visa-status-service/internal/models"
)

// Column layout of the decision source. The number and decision columns
// are fixed; the date column is optional and ignored when absent or
// unparseable.
const (
	colNumber   = 2
	colDecision = 3
	colDate     = 4

	dateLayout = "2006-01-02"
)

// trailing fraction artifact from numeric spreadsheet exports, e.g. "123456.0"
var fractionSuffix = regexp.MustCompile(`\.\d+$`)

// NormalizeNumber canonicalizes an application number: surrounding
// whitespace is trimmed and any trailing decimal fraction introduced by
// a numeric source cell is stripped.
func NormalizeNumber(raw string) string {
	return fractionSuffix.ReplaceAllString(strings.TrimSpace(raw), "")
}

type Ingester struct {
	sentinel string
	logger   logger.Logger
}

func NewIngester(cfg config.IngestionConfig, log logger.Logger) *Ingester {
	return &Ingester{
		sentinel: cfg.HeaderSentinel,
		logger:   log.WithFields(map[string]interface{}{"component": "ingester"}),
	}
}

// Ingest parses the source at path into a fresh RecordIndex.
//
// A missing source is not an error: it yields an empty index so the
// service can keep answering (every lookup resolves to Pending). An
// unreadable source returns an ingestion error and no index.
//
// Rows are scanned bottom-to-top and each accepted row overwrites any
// prior entry for its key, so when a number appears on several rows the
// one nearest the top of the table wins. The scan stops at the header
// row, identified by the sentinel literal in the number column.
func (in *Ingester) Ingest(path string) (*RecordIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			in.logger.Warn("record source missing, serving empty index", map[string]interface{}{
				"path": path,
			})
			return emptyIndex(), nil
		}
		return nil, errors.NewIngestionError(err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.NewIngestionError(err)
	}

	records := make(map[string]models.VisaRecord)
	skipped := 0

	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		if len(row) <= colDecision {
			return nil, errors.NewIngestionError(
				fmt.Errorf("row %d: expected at least %d columns, got %d", i+1, colDecision+1, len(row)))
		}

		rawNumber := strings.TrimSpace(row[colNumber])
		if strings.EqualFold(rawNumber, in.sentinel) {
			// Header reached; everything above it is preamble.
			break
		}

		number := NormalizeNumber(rawNumber)
		decision := strings.TrimSpace(row[colDecision])
		if number == "" || decision == "" {
			skipped++
			continue
		}

		status, ok := parseDecision(decision)
		if !ok {
			skipped++
			continue
		}

		rec := models.VisaRecord{
			ApplicationNumber: number,
			Status:            status,
		}
		if len(row) > colDate {
			if d, err := time.Parse(dateLayout, strings.TrimSpace(row[colDate])); err == nil {
				rec.ApplicationDate = d
			}
		}

		records[number] = rec
	}

	in.logger.Info("record source ingested", map[string]interface{}{
		"path":    path,
		"records": len(records),
		"skipped": skipped,
	})

	return &RecordIndex{records: records}, nil
}

// parseDecision maps a decision token to a status, case-insensitively.
// Unrecognized tokens are skipped by the caller, not errored.
func parseDecision(token string) (models.Status, bool) {
	switch strings.ToLower(token) {
	case "approved":
		return models.StatusApproved, true
	case "refused", "rejected":
		return models.StatusRejected, true
	case "pending":
		return models.StatusPending, true
	default:
		return "", false
	}
}
