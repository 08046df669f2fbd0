package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"cmms-backend/internal/export"
	"cmms-backend/internal/parse"
)

// RowError is one rejected import row. Row is the 1-based line in the file,
// counting the header.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportReport summarises a spare part import.
type ImportReport struct {
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Skipped int        `json:"skipped"`
	Errors  []RowError `json:"errors"`
}

var partImportRequired = []string{"kode_barang", "nama_barang"}

// ImportParts saves every row of t through SavePart. A bad row is reported and
// the remaining rows are still imported. available_stock is only used as the
// opening stock of parts that do not exist yet.
func (s *Service) ImportParts(ctx context.Context, t export.Table) (*ImportReport, error) {
	for _, col := range partImportRequired {
		if t.Index(col) < 0 {
			return nil, invalidf("missing column %q", col)
		}
	}

	cell := func(row []string, col string) string {
		i := t.Index(col)
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	report := &ImportReport{Errors: []RowError{}}
	for i, row := range t.Rows {
		line := i + 2
		if blankRow(row) {
			report.Skipped++
			continue
		}

		in, err := partInputFromRow(func(col string) string { return cell(row, col) })
		if err != nil {
			report.Errors = append(report.Errors, RowError{Row: line, Error: err.Error()})
			continue
		}

		res, err := s.SavePart(ctx, in)
		if err != nil {
			report.Errors = append(report.Errors, RowError{Row: line, Error: err.Error()})
			continue
		}
		if res.Created {
			report.Created++
		} else {
			report.Updated++
		}
	}

	s.log.Info("spare parts imported",
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("errors", len(report.Errors)),
	)
	return report, nil
}

func partInputFromRow(get func(string) string) (PartInput, error) {
	in := PartInput{
		KodeBarang:  get("kode_barang"),
		NamaBarang:  get("nama_barang"),
		Spesifikasi: get("spesifikasi"),
		Satuan:      get("satuan"),
	}

	var err error
	if in.MinimumStock, err = parse.ParseQuantity(get("minimum_stock")); err != nil {
		return in, fmt.Errorf("minimum_stock: %w", err)
	}
	if in.OpeningStock, err = parse.ParseQuantity(get("available_stock")); err != nil {
		return in, fmt.Errorf("available_stock: %w", err)
	}
	if in.SupplierID, err = parse.ParseOptionalID(get("supplier_id")); err != nil {
		return in, fmt.Errorf("supplier_id: %w", err)
	}
	return in, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
