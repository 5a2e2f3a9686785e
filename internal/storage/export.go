package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/nrsur/internal/surrogate"
)

type ExportMode struct {
	Ell  int       `json:"ell"`
	M    int       `json:"m"`
	Real []float64 `json:"real"`
	Imag []float64 `json:"imag"`
}

type ExportData struct {
	RunMetadata
	Times []float64    `json:"times"`
	Modes []ExportMode `json:"modes"`
}

// Export collects a stored run into a single JSON-ready record.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	times, modes, err := s.LoadModes(runID)
	if err != nil {
		return nil, err
	}

	data := &ExportData{RunMetadata: *meta, Times: times}
	for ell := 2; ell <= meta.EllMax; ell++ {
		for m := -ell; m <= ell; m++ {
			h := modes[surrogate.Mode{Ell: ell, M: m}]
			em := ExportMode{Ell: ell, M: m, Real: make([]float64, len(h)), Imag: make([]float64, len(h))}
			for i, v := range h {
				em.Real[i] = real(v)
				em.Imag[i] = imag(v)
			}
			data.Modes = append(data.Modes, em)
		}
	}
	return data, nil
}

func (s *Store) ExportJSON(path, runID string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return s.WriteJSON(file, runID)
}

func (s *Store) WriteJSON(w io.Writer, runID string) error {
	data, err := s.Export(runID)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
