package tmdl

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// BPAMarker is the annotation statement carrying the best-practice rule
// array inside model.tmdl.
const BPAMarker = "annotation BestPracticeAnalyzer ="

// Errors returned by AnnotationStore. Each failure mode is distinct so
// callers can message precisely.
var (
	// ErrMarkerNotFound means the annotation statement is absent.
	ErrMarkerNotFound = errors.New("annotation marker not found")

	// ErrArrayNotFound means the marker exists but no array literal
	// follows it.
	ErrArrayNotFound = errors.New("no array literal after annotation marker")

	// ErrMalformedArray means the array literal never closes.
	ErrMalformedArray = errors.New("malformed annotation array: unmatched brackets")

	// ErrDecode means the array span is not valid JSON.
	ErrDecode = errors.New("annotation array is not valid JSON")
)

// AnnotationStore reads and rewrites a JSON array embedded in one
// annotation statement of a TMDL file. Spans are re-located on every call;
// nothing is cached between Load and Save.
type AnnotationStore struct {
	// Marker is the literal annotation statement preceding the array.
	Marker string
}

// NewBPAStore returns a store bound to the BestPracticeAnalyzer annotation.
func NewBPAStore() *AnnotationStore {
	return &AnnotationStore{Marker: BPAMarker}
}

// arraySpan locates the [start, end) span of the annotation's array
// literal within content.
func (s *AnnotationStore) arraySpan(content string) (int, int, error) {
	markerIdx := strings.Index(content, s.Marker)
	if markerIdx == -1 {
		return 0, 0, fmt.Errorf("%w: %q", ErrMarkerNotFound, s.Marker)
	}

	start, end, err := FindBracketedSpan(content, markerIdx, '[', ']')
	switch {
	case errors.Is(err, ErrSpanNotFound):
		return 0, 0, ErrArrayNotFound
	case errors.Is(err, ErrMalformedSpan):
		return 0, 0, ErrMalformedArray
	case err != nil:
		return 0, 0, err
	}
	return start, end, nil
}

// Load reads the file and decodes the annotation's array into ordered
// records.
func (s *AnnotationStore) Load(path string) ([]RuleRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	content := string(data)

	start, end, err := s.arraySpan(content)
	if err != nil {
		return nil, err
	}

	var records []RuleRecord
	if err := json.Unmarshal([]byte(content[start:end]), &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return records, nil
}

// Save re-locates the array span and replaces exactly that span with the
// serialized records. Every byte before and after the span is copied
// verbatim. The write is a whole-file overwrite.
func (s *AnnotationStore) Save(path string, records []RuleRecord) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	content := string(data)

	start, end, err := s.arraySpan(content)
	if err != nil {
		return err
	}

	serialized, err := SerializeRecords(records)
	if err != nil {
		return err
	}

	rewritten := content[:start] + serialized + content[end:]
	if err := os.WriteFile(path, []byte(rewritten), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// SerializeRecords renders records as the stable, two-space-indented JSON
// array layout used inside model files.
func SerializeRecords(records []RuleRecord) (string, error) {
	if records == nil {
		records = []RuleRecord{}
	}
	compact, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("serializing rule records: %w", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return "", fmt.Errorf("serializing rule records: %w", err)
	}
	return out.String(), nil
}
