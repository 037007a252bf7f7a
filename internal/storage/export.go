package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/slidectl/internal/sim"
)

type ExportData struct {
	Run     RunMetadata  `json:"run"`
	Samples []sim.Sample `json:"samples"`
}

// ExportJSON writes a run and its samples as one indented JSON document.
func ExportJSON(w io.Writer, meta RunMetadata, samples []sim.Sample) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: meta, Samples: samples})
}

// ExportCSV copies a run's sample table to w.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	f, err := os.Open(s.SamplesPath(runID))
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
