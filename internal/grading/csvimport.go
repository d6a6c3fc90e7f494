package grading

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"school-quiz-service/internal/domain"
)

// CSV column names expected in a marks upload. index_no and stream are
// mandatory; subject columns may be empty per row (absent mark) but the
// headers themselves must be present.
var requiredColumns = []string{"index_no", "stream", "maths", "biology", "physics", "chemistry"}

// ParseMarksCSV reads an uploaded marks file into result rows for one
// year. Header or cell problems surface as domain.ErrValidation with the
// offending column/row named; nothing is persisted here.
func ParseMarksCSV(r io.Reader, year int) ([]domain.Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: missing CSV header: %v", domain.ErrValidation, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: missing required column %q", domain.ErrValidation, required)
		}
	}

	var rows []domain.Result
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", domain.ErrValidation, line, err)
		}

		indexNo := strings.TrimSpace(record[columns["index_no"]])
		if indexNo == "" {
			return nil, fmt.Errorf("%w: row %d: empty index_no", domain.ErrValidation, line)
		}
		stream := domain.Stream(strings.ToLower(strings.TrimSpace(record[columns["stream"]])))
		if !stream.Valid() {
			return nil, fmt.Errorf("%w: row %d: unknown stream %q", domain.ErrValidation, line, record[columns["stream"]])
		}

		marks := make(map[domain.Subject]*float64, 4)
		for _, subject := range domain.Subjects() {
			mark, err := parseMark(record[columns[string(subject)]])
			if err != nil {
				return nil, fmt.Errorf("%w: row %d, column %s: %v", domain.ErrValidation, line, subject, err)
			}
			marks[subject] = mark
		}

		rows = append(rows, domain.Result{
			IndexNo: indexNo,
			Year:    year,
			Stream:  stream,
			Marks:   marks,
		})
	}
	return rows, nil
}

// parseMark treats an empty cell as absent, everything else as a mark in
// [0,100].
func parseMark(cell string) (*float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return nil, fmt.Errorf("non-numeric mark %q", cell)
	}
	if value < 0 || value > 100 {
		return nil, fmt.Errorf("mark %.2f outside [0,100]", value)
	}
	return &value, nil
}
