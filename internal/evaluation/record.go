// In file: internal/evaluation/record.go

// Package evaluation runs one query through every agent variant, shows the
// answers side by side, collects a rating per answer and appends the result to
// a CSV log that later runs can summarise.
package evaluation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// TimestampLayout is the format of the Timestamp column.
const TimestampLayout = "2006-01-02 15:04:05"

// DefaultLogFile is used when no log path is configured.
const DefaultLogFile = "agent_evaluation.csv"

// MinRating and MaxRating bound a user rating.
const (
	MinRating = 1
	MaxRating = 5
)

// Header is the first row of every evaluation log.
var Header = []string{"Timestamp", "User Query", "Agent Type", "Response", "Rating"}

// Record is one rated answer. The records of one evaluation share Timestamp
// and Query.
type Record struct {
	Timestamp time.Time
	Query     string
	AgentType string
	Response  string
	Rating    int
}

func (r Record) row() []string {
	return []string{r.Timestamp.Format(TimestampLayout), r.Query, r.AgentType, r.Response, strconv.Itoa(r.Rating)}
}

// Log is an append-only CSV file of records. The header is written only when
// the file is first created.
type Log struct {
	path string
}

func NewLog(path string) *Log {
	if path == "" {
		path = DefaultLogFile
	}
	return &Log{path: path}
}

// Path returns the file the log writes to.
func (l *Log) Path() string {
	return l.path
}

// Append writes records after any existing rows. Records with a rating
// outside [MinRating, MaxRating] are refused before anything is written.
func (l *Log) Append(records []Record) error {
	for _, r := range records {
		if r.Rating < MinRating || r.Rating > MaxRating {
			return fmt.Errorf("rating for %s must be between %d and %d, got %d", r.AgentType, MinRating, MaxRating, r.Rating)
		}
	}

	info, statErr := os.Stat(l.path)
	needHeader := statErr != nil || info.Size() == 0

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open evaluation log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	// Rows are CRLF-terminated so files stay compatible with spreadsheet tools
	// and with logs written by earlier versions.
	w.UseCRLF = true
	if needHeader {
		if err := w.Write(Header); err != nil {
			return fmt.Errorf("failed to write evaluation log header: %w", err)
		}
	}
	for _, r := range records {
		if err := w.Write(r.row()); err != nil {
			return fmt.Errorf("failed to write evaluation record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush evaluation log: %w", err)
	}
	return f.Close()
}

// ReadAll returns every record in the log. A missing file holds no records.
func (l *Log) ReadAll() ([]Record, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open evaluation log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)

	first, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read evaluation log header: %w", err)
	}
	for i, name := range Header {
		if first[i] != name {
			return nil, fmt.Errorf("unexpected evaluation log header %q", first)
		}
	}

	var records []Record
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read evaluation log: %w", err)
		}
		ts, err := time.ParseInLocation(TimestampLayout, row[0], time.Local)
		if err != nil {
			return nil, fmt.Errorf("bad timestamp %q in evaluation log: %w", row[0], err)
		}
		rating, err := strconv.Atoi(row[4])
		if err != nil {
			return nil, fmt.Errorf("bad rating %q in evaluation log: %w", row[4], err)
		}
		records = append(records, Record{Timestamp: ts, Query: row[1], AgentType: row[2], Response: row[3], Rating: rating})
	}
	return records, nil
}

// Summary aggregates the ratings given to one agent type.
type Summary struct {
	AgentType string
	Ratings   int
	Average   float64
}

// Summarize groups records by agent type, in order of first appearance.
func Summarize(records []Record) []Summary {
	var order []string
	sums := make(map[string]int)
	counts := make(map[string]int)
	for _, r := range records {
		if _, seen := counts[r.AgentType]; !seen {
			order = append(order, r.AgentType)
		}
		counts[r.AgentType]++
		sums[r.AgentType] += r.Rating
	}

	out := make([]Summary, 0, len(order))
	for _, name := range order {
		out = append(out, Summary{
			AgentType: name,
			Ratings:   counts[name],
			Average:   float64(sums[name]) / float64(counts[name]),
		})
	}
	return out
}
