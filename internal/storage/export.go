package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/gridpde/internal/dynamo"
)

type ExportData struct {
	RunMetadata
	Steps  int         `json:"samples"`
	Times  []float64   `json:"times"`
	States [][]float64 `json:"states"`
}

// ExportJSON writes a run and its samples as one JSON document.
func ExportJSON(w io.Writer, meta RunMetadata, times []float64, states []dynamo.State) error {
	data := ExportData{
		RunMetadata: meta,
		Steps:       len(times),
		Times:       times,
		States:      make([][]float64, len(states)),
	}
	for i, s := range states {
		data.States[i] = s
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// WriteCSV writes one row per sample: the time followed by the state
// entries, formatted so they parse back exactly.
func WriteCSV(w io.Writer, times []float64, states []dynamo.State) error {
	if len(times) != len(states) {
		return fmt.Errorf("storage: %d times for %d states: %w", len(times), len(states), dynamo.ErrDimensionMismatch)
	}
	cw := csv.NewWriter(w)
	if len(states) == 0 {
		cw.Flush()
		return cw.Error()
	}

	header := []string{"time"}
	for i := range states[0] {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, 0, len(header))
	for i, s := range states {
		row = append(row[:0], strconv.FormatFloat(times[i], 'g', -1, 64))
		for _, val := range s {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
