package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/san-kum/nrsur/internal/dynamo"
	"github.com/san-kum/nrsur/internal/surrogate"
)

func testWaveform() (surrogate.Request, *surrogate.Waveform) {
	req := surrogate.Request{
		Params: dynamo.Params{MassRatio: 1.2, ChiA: [3]float64{0, 0, 0.3}},
		Dt:     0.5,
	}
	w := &surrogate.Waveform{
		Times:  []float64{-1, -0.5, 0},
		EllMax: 2,
		Modes:  make(map[surrogate.Mode][]complex128),
	}
	for m := -2; m <= 2; m++ {
		w.Modes[surrogate.Mode{Ell: 2, M: m}] = []complex128{
			complex(float64(m), 0.125), complex(0.1, float64(m)/3), 0,
		}
	}
	return req, w
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	req, w := testWaveform()
	runID, err := st.Save("synthetic", req, w, map[string]float64{"peak_time": 0})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := uuid.Parse(runID); err != nil {
		t.Errorf("run id %q is not a uuid: %v", runID, err)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Model != "synthetic" || meta.MassRatio != 1.2 || meta.ChiA[2] != 0.3 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Samples != 3 || meta.EllMax != 2 {
		t.Errorf("samples %d ellMax %d", meta.Samples, meta.EllMax)
	}

	times, modes, err := st.LoadModes(runID)
	if err != nil {
		t.Fatalf("load modes failed: %v", err)
	}
	if len(times) != 3 || times[1] != -0.5 {
		t.Errorf("times = %v", times)
	}
	for k, h := range w.Modes {
		got := modes[k]
		if len(got) != len(h) {
			t.Fatalf("mode %v: %d samples", k, len(got))
		}
		for i := range h {
			if got[i] != h[i] {
				t.Errorf("mode %v sample %d: %v, want %v", k, i, got[i], h[i])
			}
		}
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	req, w := testWaveform()
	for i := 0; i < 2; i++ {
		if _, err := st.Save("synthetic", req, w, nil); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Errorf("List() = %v, %v", runs, err)
	}
}

func TestExportJSON(t *testing.T) {
	dir := t.TempDir()
	st := New(filepath.Join(dir, "runs"))
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	req, w := testWaveform()
	runID, err := st.Save("synthetic", req, w, nil)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "out.json")
	if err := st.ExportJSON(path, runID); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data.ID != runID || len(data.Times) != 3 || len(data.Modes) != 5 {
		t.Errorf("unexpected export: id %s, %d times, %d modes", data.ID, len(data.Times), len(data.Modes))
	}
	if m := data.Modes[0]; m.Ell != 2 || m.M != -2 || m.Real[0] != -2 {
		t.Errorf("first mode = %+v", m)
	}

	var buf bytes.Buffer
	if err := st.WriteJSON(&buf, runID); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(bytes.TrimSpace(buf.Bytes()), bytes.TrimSpace(raw)) {
		t.Error("WriteJSON and ExportJSON disagree")
	}
}
