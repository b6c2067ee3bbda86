// Package report renders findings as they are produced. Two interchangeable
// reporters are provided: TextReporter for people reading a terminal and
// JSONReporter for tools consuming one JSON object per line.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nox-hq/histscan/core/findings"
)

// Reporter defines the contract for emitting a single finding. Each output
// format implements this interface.
type Reporter interface {
	Report(f findings.Finding) error
}

// Record is the structured form of a finding.
type Record struct {
	File   string `json:"file"`
	Date   string `json:"date"`
	Branch string `json:"branch"`
	Commit string `json:"commit"`
	Diff   string `json:"diff"`
	String string `json:"string"`
}

// NewRecord converts a finding into its structured form.
func NewRecord(f findings.Finding) Record {
	return Record{
		File:   f.Path,
		Date:   f.Timestamp(),
		Branch: f.Branch,
		Commit: f.Message,
		Diff:   f.Diff,
		String: f.String,
	}
}

// JSONReporter writes each finding as a self-contained JSON object on its
// own line.
type JSONReporter struct {
	enc *json.Encoder
}

// NewJSONReporter returns a JSONReporter writing to w.
func NewJSONReporter(w io.Writer) *JSONReporter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONReporter{enc: enc}
}

// Report encodes f followed by a newline.
func (r *JSONReporter) Report(f findings.Finding) error {
	if err := r.enc.Encode(NewRecord(f)); err != nil {
		return fmt.Errorf("writing json record: %w", err)
	}
	return nil
}
