package kpi

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"sort"
)

// binaryMagic/binaryVersion tag the compact KPI container so a reader can
// validate the file before parsing the record stream; mirrors the
// self-describing header spec §6 requires of agent.bin.
const (
	binaryMagic   uint32 = 0x4b504930 // "KPI0"
	binaryVersion uint32 = 1
)

// BinarySink appends records to one compact binary file, in arrival order:
// a fixed header once, followed by one variable-length record per Write.
// Record layout: label_len(u16) label, step(i64), unixNano(i64),
// nfields(u16), then nfields of (name_len(u16) name, value(f64) LE).
type BinarySink struct {
	file   *os.File
	w      *bufio.Writer
	filter func(label string) bool
}

// NewBinarySink creates (or truncates) path and writes the container header.
func NewBinarySink(path, labelSelector string) (*BinarySink, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("kpi: binary sink: %w", err)
	}
	w := bufio.NewWriter(file)
	if err := binary.Write(w, binary.LittleEndian, binaryMagic); err != nil {
		return nil, fmt.Errorf("kpi: binary sink: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, binaryVersion); err != nil {
		return nil, fmt.Errorf("kpi: binary sink: %w", err)
	}
	return &BinarySink{file: file, w: w, filter: LabelFilter(labelSelector)}, nil
}

func (s *BinarySink) Write(r Record) error {
	if !s.filter(r.Label) {
		return nil
	}

	if err := writeString(s.w, r.Label); err != nil {
		return err
	}
	if err := binary.Write(s.w, binary.LittleEndian, r.Step); err != nil {
		return err
	}
	if err := binary.Write(s.w, binary.LittleEndian, r.Timestamp.UnixNano()); err != nil {
		return err
	}

	names := make([]string, 0, len(r.Fields))
	for name := range r.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	if err := binary.Write(s.w, binary.LittleEndian, uint16(len(names))); err != nil {
		return err
	}
	for _, name := range names {
		if err := writeString(s.w, name); err != nil {
			return err
		}
		if err := binary.Write(s.w, binary.LittleEndian, r.Fields[name]); err != nil {
			return err
		}
	}
	return nil
}

func writeString(w *bufio.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := w.WriteString(s)
	return err
}

func (s *BinarySink) Close() error {
	if err := s.w.Flush(); err != nil {
		return err
	}
	return s.file.Close()
}
