package history

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"go-color-inspector/internal/logger"
)

var csvHeader = []string{
	"time", "absolute_time", "de", "de76", "de2000",
	"dl", "da", "db", "dc", "dh",
	"lab_l", "lab_a", "lab_b",
	"rgb_r", "rgb_g", "rgb_b",
	"calibrated", "sample_size_cm", "de_method",
}

// ExportCSV writes all entries to w, one row per entry in history order.
// includeHeader controls the header row.
func (s *Store) ExportCSV(w io.Writer, includeHeader bool) error {
	entries := s.Entries()

	cw := csv.NewWriter(w)
	if includeHeader {
		if err := cw.Write(csvHeader); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}

	for _, p := range entries {
		row := []string{
			formatFloat(p.Time),
			formatFloat(p.AbsoluteTime),
			formatFloat(p.DE),
			formatFloat(p.DE76),
			formatFloat(p.DE2000),
			formatFloat(p.DL),
			formatFloat(p.DA),
			formatFloat(p.DB),
			formatFloat(p.DC),
			formatFloat(p.DH),
			formatFloat(p.Lab.L),
			formatFloat(p.Lab.A),
			formatFloat(p.Lab.B),
			formatFloat(p.RGB.R),
			formatFloat(p.RGB.G),
			formatFloat(p.RGB.B),
			strconv.FormatBool(p.Calibrated),
			formatFloat(p.SampleSizeCM),
			string(p.Method),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	logger.WithField("rows", len(entries)).Info("CSV export completed")
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
