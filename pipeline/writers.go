// Package pipeline persists scraped tables to delimited and JSON files.
package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aluiziolira/go-scrape-hys/models"
)

// OutputWriter defines the interface for table output.
type OutputWriter interface {
	Write(t *models.Table) error
	Close() error
	Validate() error
}

// NewWriter builds a writer for the given format. base is the output
// path without extension; the format decides the suffix.
func NewWriter(format, base string) (OutputWriter, error) {
	switch format {
	case "csv":
		return NewCSVWriter(base + ".csv")
	case "json":
		return NewJSONWriter(base + ".json")
	case "dual":
		return NewDualWriter(base+".csv", base+".json")
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// CSVWriter writes a table to CSV. The header comes from the first
// Write call's column set, since the schema is only known at runtime.
type CSVWriter struct {
	file        *os.File
	writer      *csv.Writer
	mu          sync.Mutex
	columns     []string
	wroteHeader bool
}

// NewCSVWriter initialises a CSV writer.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}
	return &CSVWriter{
		file:   f,
		writer: csv.NewWriter(f),
	}, nil
}

// Write appends the table's rows to the CSV output, emitting the header
// first if it hasn't been written yet.
func (cw *CSVWriter) Write(t *models.Table) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.wroteHeader {
		cw.columns = t.Columns
		if err := cw.writer.Write(cw.columns); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
		cw.wroteHeader = true
	}

	record := make([]string, len(cw.columns))
	for _, row := range t.Rows {
		for i, col := range cw.columns {
			record[i] = models.CellString(row[col])
		}
		if err := cw.writer.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures the file has content.
func (cw *CSVWriter) Validate() error {
	info, err := cw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("csv file is empty")
	}
	return nil
}

// JSONWriter writes table rows as newline-delimited JSON records.
type JSONWriter struct {
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONWriter initialises the JSON writer.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create json file: %w", err)
	}

	buffer := bufio.NewWriter(f)
	return &JSONWriter{
		file:    f,
		writer:  buffer,
		encoder: json.NewEncoder(buffer),
	}, nil
}

// Write appends the table's rows in JSONL format. Timestamp cells are
// rendered the same way the CSV writer renders them.
func (jw *JSONWriter) Write(t *models.Table) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	for _, row := range t.Rows {
		encodable := make(map[string]any, len(t.Columns))
		for _, col := range t.Columns {
			value := row[col]
			if ts, ok := value.(time.Time); ok {
				value = ts.Format(time.RFC3339)
			}
			encodable[col] = value
		}
		if err := jw.encoder.Encode(encodable); err != nil {
			return fmt.Errorf("encode json record: %w", err)
		}
	}

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures the JSON file has data.
func (jw *JSONWriter) Validate() error {
	info, err := jw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat json file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("json file is empty")
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
