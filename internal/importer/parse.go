package importer

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/cinema-showtimes/internal/model"
)

// ErrUnsupportedFormat is returned for uploads that are not .json, .csv,
// .xlsx or .xls, and for .xls files in the legacy binary format.
var ErrUnsupportedFormat = errors.New("unsupported import format")

// ErrEmpty is returned when an upload holds no data rows.
var ErrEmpty = errors.New("no rows to import")

// Result is a parsed upload.  Showtimes holds every row in sheet order,
// cleaned as far as possible; Problems lists what would block an import.
type Result struct {
	Showtimes []model.Showtime `json:"showtimes"`
	Problems  []Problem        `json:"problems"`
}

// Valid reports whether the upload can be stored as is.
func (r Result) Valid() bool { return len(r.Problems) == 0 }

// Err returns the problems as a *ValidationError, or nil.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return &ValidationError{Problems: r.Problems}
}

// columns maps lower-cased header names to Showtime fields.  Both the API
// names and the legacy sheet headers are accepted.
var columns = map[string]string{
	"screening_date":    "date",
	"date":              "date",
	"data":              "date",
	"film_external_id":  "film",
	"tmdb_id":           "film",
	"id film tmdb":      "film",
	"start_time":        "start",
	"orario inizio":     "start",
	"end_time":          "end",
	"orario fine":       "end",
	"language":          "language",
	"lingua":            "language",
	"subtitle_language": "subtitles",
	"subtitles":         "subtitles",
	"sottotitoli":       "subtitles",
	"booking_reference": "booking",
	"pretix event id":   "booking",
	"title":             "title",
	"titolo":            "title",
	"sold_out":          "sold_out",
	"sold out":          "sold_out",
	"annotation":        "annotation",
	"mark":              "annotation",
}

// Parse reads an upload, choosing the decoder from name's extension.
func Parse(name string, r io.Reader) (Result, error) {
	var (
		records []map[string]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		records, err = readJSON(r)
	case ".csv":
		records, err = readCSV(r)
	case ".xlsx":
		records, err = readXLSX(r)
	case ".xls":
		// only OOXML content saved under .xls can be read
		records, err = readXLSX(r)
		if err != nil && !errors.Is(err, ErrEmpty) {
			err = fmt.Errorf("%w: binary .xls, save the sheet as .xlsx: %v", ErrUnsupportedFormat, err)
		}
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
	if err != nil {
		return Result{}, err
	}
	return FromRecords(records)
}

// FromRecords maps header-keyed records onto showtimes and cleans them.
func FromRecords(records []map[string]string) (Result, error) {
	if len(records) == 0 {
		return Result{}, ErrEmpty
	}
	res := Result{Showtimes: make([]model.Showtime, 0, len(records)), Problems: []Problem{}}
	for i, rec := range records {
		s, probs := fromRecord(rec)
		probs = append(probs, Clean(&s)...)
		for _, p := range probs {
			p.Row = i + 1
			res.Problems = append(res.Problems, p)
		}
		res.Showtimes = append(res.Showtimes, s)
	}
	return res, nil
}

func fromRecord(rec map[string]string) (model.Showtime, []Problem) {
	var (
		s     model.Showtime
		probs []Problem
	)
	for k, v := range rec {
		switch columns[strings.ToLower(strings.TrimSpace(k))] {
		case "date":
			s.ScreeningDate = v
		case "film":
			s.FilmExternalID = v
		case "start":
			s.StartTime = v
		case "end":
			s.EndTime = v
		case "language":
			s.Language = v
		case "subtitles":
			v := v
			s.SubtitleLanguage = &v
		case "booking":
			s.BookingReference = v
		case "title":
			s.Title = v
		case "sold_out":
			b, ok := parseYesNo(v)
			if !ok {
				probs = append(probs, Problem{Field: "sold_out", Message: "must be yes or no"})
			}
			s.SoldOut = b
		case "annotation":
			v := v
			s.Annotation = &v
		}
	}
	return s, probs
}

// parseYesNo reads a sold-out cell.  Blank means no.
func parseYesNo(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "y", "si", "sì", "1", "x":
		return true, true
	case "false", "no", "n", "0", "":
		return false, true
	}
	return false, false
}

func readJSON(r io.Reader) ([]map[string]string, error) {
	var raw []map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode json upload: %w", err)
	}
	out := make([]map[string]string, 0, len(raw))
	for _, obj := range raw {
		rec := make(map[string]string, len(obj))
		for k, v := range obj {
			rec[k] = stringify(v)
		}
		out = append(out, rec)
	}
	return out, nil
}

// stringify renders JSON scalars the way a sheet cell would show them.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func readCSV(r io.Reader) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv upload: %w", err)
	}
	return byHeader(rows), nil
}

func readXLSX(r io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx upload: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return byHeader(rows), nil
}

// byHeader turns a grid whose first row is the header into records.
// Blank rows are skipped.
func byHeader(rows [][]string) []map[string]string {
	if len(rows) < 2 {
		return nil
	}
	header := rows[0]
	var out []map[string]string
	for _, row := range rows[1:] {
		rec := make(map[string]string, len(header))
		blank := true
		for i, h := range header {
			if i < len(row) {
				rec[h] = row[i]
				if strings.TrimSpace(row[i]) != "" {
					blank = false
				}
			}
		}
		if !blank {
			out = append(out, rec)
		}
	}
	return out
}
