package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/slidectl/internal/sim"
	"github.com/san-kum/slidectl/internal/slide"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
)

var (
	ErrRunNotFound  = errors.New("storage: run not found")
	ErrAmbiguousRun = errors.New("storage: run id prefix is ambiguous")
)

var sampleHeader = []string{"time", "target", "measured", "position", "velocity", "output", "left", "right", "state"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type Gains struct {
	Kp float64 `json:"kp"`
	Ki float64 `json:"ki"`
	Kd float64 `json:"kd"`
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	Integrator  string             `json:"integrator"`
	Gains       Gains              `json:"gains"`
	MinHeight   float64            `json:"min_height"`
	MaxHeight   float64            `json:"max_height"`
	OutputLimit float64            `json:"output_limit"`
	Routine     string             `json:"routine,omitempty"`
	Steps       int                `json:"steps"`
	Metrics     map[string]float64 `json:"metrics"`
}

// GainsFrom snapshots a tuning cell.
func GainsFrom(t *slide.Tuning) Gains {
	return Gains{Kp: t.Kp(), Ki: t.Ki(), Kd: t.Kd()}
}

// Save writes a run under a fresh id and returns the id. Fields of meta that
// the store owns (ID, Timestamp, Steps, Metrics) are overwritten.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	meta.ID = uuid.NewString()
	meta.Timestamp = time.Now()
	meta.Steps = len(result.Samples)
	meta.Metrics = result.Metrics

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, samplesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := writeSamples(csvFile, result.Samples); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeSamples(f *os.File, samples []sim.Sample) error {
	w := csv.NewWriter(f)
	if err := w.Write(sampleHeader); err != nil {
		return err
	}

	format := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for _, smp := range samples {
		row := []string{
			format(smp.T),
			format(smp.Target),
			format(smp.Measured),
			format(smp.Position),
			format(smp.Velocity),
			format(smp.Output),
			format(smp.Left),
			format(smp.Right),
			smp.State.String(),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns all stored runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

// Resolve expands a unique id prefix to the full run id.
func (s *Store) Resolve(prefix string) (string, error) {
	if _, err := uuid.Parse(prefix); err == nil {
		return prefix, nil
	}

	runs, err := s.List()
	if err != nil {
		return "", err
	}

	var match string
	for _, r := range runs {
		if !strings.HasPrefix(r.ID, prefix) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("%w: %s", ErrAmbiguousRun, prefix)
		}
		match = r.ID
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	}
	return match, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// SamplesPath is the CSV file holding a run's samples.
func (s *Store) SamplesPath(runID string) string {
	return filepath.Join(s.baseDir, runID, samplesFile)
}

func (s *Store) LoadSamples(runID string) ([]sim.Sample, error) {
	file, err := os.Open(s.SamplesPath(runID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(sampleHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return []sim.Sample{}, nil
	}

	samples := make([]sim.Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		vals := make([]float64, len(sampleHeader)-1)
		for j := range vals {
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, fmt.Errorf("samples row %d column %s: %w", i+1, sampleHeader[j], err)
			}
			vals[j] = v
		}

		var state slide.State
		if err := state.UnmarshalText([]byte(record[len(record)-1])); err != nil {
			return nil, fmt.Errorf("samples row %d: %w", i+1, err)
		}

		samples = append(samples, sim.Sample{
			T:        vals[0],
			Target:   vals[1],
			Measured: vals[2],
			Position: vals[3],
			Velocity: vals[4],
			Output:   vals[5],
			Left:     vals[6],
			Right:    vals[7],
			State:    state,
		})
	}

	return samples, nil
}
