// Package storage persists sampled runs.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/rs/xid"

	"github.com/san-kum/gridpde/internal/dynamo"
)

// ErrNotFound is returned for unknown run ids.
var ErrNotFound = errors.New("storage: run not found")

type RunMetadata struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	PDE       string             `json:"pde"`
	Grid      string             `json:"grid"`
	GridKind  string             `json:"grid_kind"`
	Bounds    [][2]float64       `json:"bounds"`
	Shape     []int              `json:"shape"`
	Periodic  []bool             `json:"periodic"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      uint64             `json:"seed"`
	Dt        float64            `json:"dt"`
	TStart    float64            `json:"t_start"`
	TEnd      float64            `json:"t_end"`
	Solver    string             `json:"solver"`
	Scheme    string             `json:"scheme"`
	Adaptive  bool               `json:"adaptive"`
	Info      map[string]any     `json:"info,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// Store keeps run metadata together with the sampled states of the run.
type Store interface {
	Save(meta RunMetadata, times []float64, states []dynamo.State) (string, error)
	List() ([]RunMetadata, error)
	Load(id string) (*RunMetadata, error)
	LoadStates(id string) ([]dynamo.State, []float64, error)
	Close() error
}

func prepare(meta *RunMetadata, times []float64, states []dynamo.State) error {
	if len(times) != len(states) {
		return fmt.Errorf("storage: %d times for %d states: %w", len(times), len(states), dynamo.ErrDimensionMismatch)
	}
	if meta.ID == "" {
		meta.ID = xid.New().String()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	return nil
}

func sortRuns(runs []RunMetadata) {
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
}

// DirStore writes one directory per run holding metadata.json and
// states.csv.
type DirStore struct {
	baseDir string
}

func NewDirStore(baseDir string) *DirStore {
	return &DirStore{baseDir: baseDir}
}

func (s *DirStore) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *DirStore) Close() error { return nil }

func (s *DirStore) Save(meta RunMetadata, times []float64, states []dynamo.State) (string, error) {
	if err := prepare(&meta, times, states); err != nil {
		return "", err
	}
	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	err := writeFile(filepath.Join(runDir, "metadata.json"), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	})
	if err != nil {
		return "", err
	}
	err = writeFile(filepath.Join(runDir, "states.csv"), func(w io.Writer) error {
		return WriteCSV(w, times, states)
	})
	if err != nil {
		return "", err
	}
	return meta.ID, nil
}

var createFile = func(name string) (io.WriteCloser, error) { return os.Create(name) }

// writeFile reports errors from Close as well as from write.
func writeFile(name string, write func(io.Writer) error) error {
	f, err := createFile(name)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *DirStore) List() ([]RunMetadata, error) {
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
	sortRuns(runs)
	return runs, nil
}

func (s *DirStore) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", runID, ErrNotFound)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *DirStore) LoadStates(runID string) ([]dynamo.State, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%s: %w", runID, ErrNotFound)
		}
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return []dynamo.State{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	states := make([]dynamo.State, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) == 0 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("states.csv row %d: %w", i+1, err)
		}
		state := make(dynamo.State, len(record)-1)
		for j, field := range record[1:] {
			if state[j], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, nil, fmt.Errorf("states.csv row %d: %w", i+1, err)
			}
		}
		times = append(times, t)
		states = append(states, state)
	}
	return states, times, nil
}
