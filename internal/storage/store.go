package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/nrsur/internal/surrogate"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Model     string             `json:"model"`
	Timestamp time.Time          `json:"timestamp"`
	MassRatio float64            `json:"mass_ratio"`
	ChiA      [3]float64         `json:"chi_a"`
	ChiB      [3]float64         `json:"chi_b"`
	EllMax    int                `json:"ell_max"`
	InitPhase float64            `json:"init_phase"`
	TRef      *float64           `json:"t_ref,omitempty"`
	FRef      *float64           `json:"f_ref,omitempty"`
	Dt        float64            `json:"dt,omitempty"`
	Samples   int                `json:"samples"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes metadata.json and modes.csv for one evaluation under a new
// run directory and returns the run ID.
func (s *Store) Save(model string, req surrogate.Request, w *surrogate.Waveform, metrics map[string]float64) (string, error) {
	runID := uuid.NewString()
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Model:     model,
		Timestamp: time.Now(),
		MassRatio: req.Params.MassRatio,
		ChiA:      req.Params.ChiA,
		ChiB:      req.Params.ChiB,
		EllMax:    w.EllMax,
		InitPhase: req.InitPhase,
		TRef:      req.TRef,
		FRef:      req.FRef,
		Dt:        req.Dt,
		Samples:   len(w.Times),
		Metrics:   metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "modes.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	cw := csv.NewWriter(csvFile)
	modes := w.Stacked()

	header := []string{"time"}
	for ell := 2; ell <= w.EllMax; ell++ {
		for m := -ell; m <= ell; m++ {
			header = append(header, fmt.Sprintf("re_%d_%d", ell, m), fmt.Sprintf("im_%d_%d", ell, m))
		}
	}
	if err := cw.Write(header); err != nil {
		return "", err
	}

	for i, t := range w.Times {
		row := []string{formatFloat(t)}
		for _, h := range modes {
			row = append(row, formatFloat(real(h[i])), formatFloat(imag(h[i])))
		}
		if err := cw.Write(row); err != nil {
			return "", err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", err
	}

	return runID, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns the metadata of every stored run, oldest first.
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

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadModes reads back the mode series of a run.
func (s *Store) LoadModes(runID string) ([]float64, map[surrogate.Mode][]complex128, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "modes.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("storage: %s: empty modes.csv", runID)
	}

	header := records[0]
	keys := make([]surrogate.Mode, 0, (len(header)-1)/2)
	for c := 1; c+1 < len(header); c += 2 {
		var k surrogate.Mode
		if _, err := fmt.Sscanf(header[c], "re_%d_%d", &k.Ell, &k.M); err != nil {
			return nil, nil, fmt.Errorf("storage: %s: bad column %q: %w", runID, header[c], err)
		}
		keys = append(keys, k)
	}

	times := make([]float64, 0, len(records)-1)
	modes := make(map[surrogate.Mode][]complex128, len(keys))
	for _, rec := range records[1:] {
		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("storage: %s: %w", runID, err)
		}
		times = append(times, t)
		for k, key := range keys {
			re, err := strconv.ParseFloat(rec[1+2*k], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("storage: %s: %w", runID, err)
			}
			im, err := strconv.ParseFloat(rec[2+2*k], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("storage: %s: %w", runID, err)
			}
			modes[key] = append(modes[key], complex(re, im))
		}
	}
	return times, modes, nil
}
