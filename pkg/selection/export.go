package selection

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	// CSVHeader is the first line of every export.
	CSVHeader = `"HPO ID","Term Name"`

	// ContentType is the media type served with an export.
	ContentType = "text/csv; charset=utf-8"
)

// WriteCSV writes items as CSV: the id column is always quoted, the name
// column only when it holds a comma, a double quote or a newline.
func WriteCSV(w io.Writer, items []Item) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(CSVHeader + "\n"); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, item := range items {
		line := quote(item.ID) + "," + csvName(item.Label) + "\n"
		if _, err := bw.WriteString(line); err != nil {
			return fmt.Errorf("writing csv row for %s: %w", item.ID, err)
		}
	}
	return bw.Flush()
}

// ExportCSV writes the selection. An empty selection returns ErrEmptySelection and writes nothing.
func (s *Selection) ExportCSV(w io.Writer) error {
	if s.Len() == 0 {
		return ErrEmptySelection
	}
	return WriteCSV(w, s.items)
}

// FileName suggests a download name for an export made at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("hpo_selection_%s.csv", t.UTC().Format("2006-01-02"))
}

func csvName(name string) string {
	if strings.ContainsAny(name, ",\"\n") {
		return quote(name)
	}
	return name
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
