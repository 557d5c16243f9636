// Package importer parses journey log exports (CSV, XLSX, JSON) into trip
// records. It is deliberately tolerant: header names vary between export
// versions, and unparsable cells are left unmarked for the anomaly detector
// to flag rather than failing the whole file.
package importer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/mhagberg/voltflow/internal/common"
	"github.com/mhagberg/voltflow/internal/model"
)

// Importer parses journey log files into trip records.
type Importer struct{}

// New creates an importer.
func New() *Importer {
	return &Importer{}
}

// Import parses the file at path, dispatching on its extension.
func (imp *Importer) Import(path string) ([]model.TripRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		return imp.ImportCSV(f)
	case ".json":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		return imp.ImportJSON(f)
	case ".xlsx":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		return imp.ImportXLSX(f)
	default:
		return nil, fmt.Errorf("%w: %s", common.ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ImportCSV parses a comma-separated journey export.
func (imp *Importer) ImportCSV(r io.Reader) ([]model.TripRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(rows) < 2 {
		return nil, common.ErrEmptyFile
	}

	return imp.fromRows(rows)
}

// ImportXLSX parses the first sheet of an Excel journey export.
func (imp *Importer) ImportXLSX(r io.Reader) ([]model.TripRecord, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = wb.Close() }()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, common.ErrEmptyFile
	}

	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, common.ErrEmptyFile
	}

	return imp.fromRows(rows)
}

// ImportJSON parses a JSON array of trip objects.
func (imp *Importer) ImportJSON(r io.Reader) ([]model.TripRecord, error) {
	var raw []map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	if len(raw) == 0 {
		return nil, common.ErrEmptyFile
	}

	records := make([]model.TripRecord, 0, len(raw))
	for _, obj := range raw {
		rec := model.TripRecord{ID: uuid.NewString()}
		for key, value := range obj {
			field, ok := headerField(key)
			if !ok {
				continue
			}
			setField(&rec, field, valueToString(value))
		}
		records = append(records, rec)
	}
	return records, nil
}

// fromRows converts a header row plus data rows into trip records.
func (imp *Importer) fromRows(rows [][]string) ([]model.TripRecord, error) {
	columns := make(map[int]model.Field)
	for i, header := range rows[0] {
		if field, ok := headerField(header); ok {
			columns[i] = field
		}
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: no recognizable columns in header %v", common.ErrUnsupportedFormat, rows[0])
	}

	records := make([]model.TripRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := model.TripRecord{ID: uuid.NewString()}
		for i, cell := range row {
			field, ok := columns[i]
			if !ok {
				continue
			}
			setField(&rec, field, cell)
		}
		records = append(records, rec)
	}
	return records, nil
}

// headerField maps a raw header or JSON key to a trip record field. Matching
// is tolerant of case, spacing, underscores, and unit suffixes.
func headerField(header string) (model.Field, bool) {
	switch normalizeHeader(header) {
	case "starttime", "startdate", "departuretime", "tripstart":
		return model.FieldStartTime, true
	case "endtime", "enddate", "arrivaltime", "tripend":
		return model.FieldEndTime, true
	case "startodometer", "odometerstart", "odostart":
		return model.FieldOdometerStart, true
	case "endodometer", "odometerend", "odoend":
		return model.FieldOdometerEnd, true
	case "distance", "distancekm", "tripdistance":
		return model.FieldDistance, true
	case "energy", "energykwh", "consumption", "energyconsumption", "consumedenergy":
		return model.FieldEnergy, true
	default:
		return "", false
	}
}

func normalizeHeader(header string) string {
	// Strip a unit suffix like "(km)" or "(kWh)" before normalizing.
	if i := strings.IndexByte(header, '('); i >= 0 {
		header = header[:i]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(header) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// setField parses the raw cell into the record. Cells that fail to parse are
// left absent so the anomaly detector reports them per-row instead of the
// importer aborting the file.
func setField(rec *model.TripRecord, field model.Field, raw string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}

	switch field {
	case model.FieldStartTime, model.FieldEndTime:
		ts, err := parseTime(raw)
		if err != nil {
			slog.Debug("Unparsable timestamp cell", "field", field, "value", raw)
			return
		}
		if field == model.FieldStartTime {
			rec.StartTime = ts
		} else {
			rec.EndTime = ts
		}
	default:
		v, err := parseFloat(raw)
		if err != nil {
			slog.Debug("Unparsable numeric cell", "field", field, "value", raw)
			return
		}
		switch field {
		case model.FieldOdometerStart:
			rec.OdometerStart = v
		case model.FieldOdometerEnd:
			rec.OdometerEnd = v
		case model.FieldDistance:
			rec.DistanceKm = v
		case model.FieldEnergy:
			rec.EnergyKWh = v
		}
	}

	rec.Present = rec.Present.With(field)
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"02.01.2006 15:04",
	"01/02/2006 15:04",
}

func parseTime(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

func parseFloat(raw string) (float64, error) {
	// European exports use a comma decimal separator.
	raw = strings.ReplaceAll(raw, ",", ".")
	return strconv.ParseFloat(raw, 64)
}

func valueToString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
