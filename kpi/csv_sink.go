package kpi

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// CSVSink writes one file per label under dir, one row per step, with a
// header row taken from the first record's field names (sorted, for a
// stable column order across runs).
type CSVSink struct {
	dir     string
	filter  func(label string) bool
	writers map[string]*csvWriter
}

type csvWriter struct {
	file    *os.File
	writer  *csv.Writer
	columns []string
}

// NewCSVSink creates dir if needed and returns a sink writing one CSV file
// per label beneath it, restricted to labels passing the given selector
// (spec §6: "all", or a comma-separated list).
func NewCSVSink(dir, labelSelector string) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("kpi: csv sink: %w", err)
	}
	return &CSVSink{
		dir:     dir,
		filter:  LabelFilter(labelSelector),
		writers: make(map[string]*csvWriter),
	}, nil
}

func (s *CSVSink) Write(r Record) error {
	if !s.filter(r.Label) {
		return nil
	}

	w, ok := s.writers[r.Label]
	if !ok {
		var err error
		w, err = s.openWriter(r)
		if err != nil {
			return err
		}
		s.writers[r.Label] = w
	}

	row := make([]string, 0, len(w.columns)+2)
	row = append(row, strconv.FormatInt(r.Step, 10), r.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"))
	for _, col := range w.columns {
		row = append(row, strconv.FormatFloat(r.Fields[col], 'g', -1, 64))
	}
	if err := w.writer.Write(row); err != nil {
		return fmt.Errorf("kpi: csv write %s: %w", r.Label, err)
	}
	w.writer.Flush()
	return w.writer.Error()
}

func (s *CSVSink) openWriter(r Record) (*csvWriter, error) {
	path := filepath.Join(s.dir, r.Label+".csv")
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("kpi: csv sink: %w", err)
	}

	columns := make([]string, 0, len(r.Fields))
	for name := range r.Fields {
		columns = append(columns, name)
	}
	sort.Strings(columns)

	w := csv.NewWriter(file)
	header := append([]string{"step", "timestamp"}, columns...)
	if err := w.Write(header); err != nil {
		file.Close()
		return nil, fmt.Errorf("kpi: csv sink: %w", err)
	}
	w.Flush()

	return &csvWriter{file: file, writer: w, columns: columns}, nil
}

func (s *CSVSink) Close() error {
	var first error
	for _, w := range s.writers {
		w.writer.Flush()
		if err := w.writer.Error(); err != nil && first == nil {
			first = err
		}
		if err := w.file.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
