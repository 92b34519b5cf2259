// Package roster reads the invite list CSV shared by the rebuild and
// mail-merge tools: semicolon-separated with Email1 and Email2 columns,
// one invited respondent per row.
package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

type Entry struct {
	Email1 string
	Email2 string
}

// Emails returns the entry's non-blank addresses in column order.
func (e Entry) Emails() []string {
	var out []string
	for _, email := range []string{e.Email1, e.Email2} {
		if strings.TrimSpace(email) != "" {
			out = append(out, email)
		}
	}
	return out
}

// Load parses the CSV at path. Rows without any email are skipped.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster csv: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func Parse(r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read roster header: %w", err)
	}
	col1, col2 := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "Email1":
			col1 = i
		case "Email2":
			col2 = i
		}
	}
	if col1 < 0 {
		return nil, fmt.Errorf("roster csv has no Email1 column (header: %v)", header)
	}

	var entries []Entry
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read roster row: %w", err)
		}
		var e Entry
		if col1 < len(record) {
			e.Email1 = record[col1]
		}
		if col2 >= 0 && col2 < len(record) {
			e.Email2 = record[col2]
		}
		if len(e.Emails()) == 0 {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
