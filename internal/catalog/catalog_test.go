package catalog

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/nrsur/internal/dynamo"
)

func TestDefaultList(t *testing.T) {
	entries := Default().List()
	if len(entries) != len(known) {
		t.Fatalf("expected %d entries, got %d", len(known), len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Name >= entries[i].Name {
			t.Errorf("entries not sorted: %s before %s", entries[i-1].Name, entries[i].Name)
		}
	}
	for _, e := range entries {
		if e.URL == "" || e.Description == "" {
			t.Errorf("%s: incomplete entry", e.Name)
		}
	}
}

func TestPullUnknown(t *testing.T) {
	_, err := Default().Pull(context.Background(), "nope", t.TempDir())
	if !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func tarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, body := range files {
		hdr := &tar.Header{Name: name, Mode: 0644, Size: int64(len(body)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestPull(t *testing.T) {
	archive := tarGz(t, map[string]string{"toy/model.sqlite": "data"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/toy.h5":
			_, _ = w.Write([]byte("raw model"))
		case "/toy.tar.gz":
			_, _ = w.Write(archive)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := &Catalog{
		Entries: map[string]Entry{
			"plain":   {Name: "plain", URL: srv.URL + "/toy.h5"},
			"packed":  {Name: "packed", URL: srv.URL + "/toy.tar.gz"},
			"missing": {Name: "missing", URL: srv.URL + "/gone.h5"},
		},
		Client: srv.Client(),
	}
	dir := t.TempDir()
	ctx := context.Background()

	p, err := c.Pull(ctx, "plain", dir)
	if err != nil {
		t.Fatalf("pull plain: %v", err)
	}
	if data, _ := os.ReadFile(p); string(data) != "raw model" {
		t.Errorf("plain contents %q", data)
	}

	p, err = c.Pull(ctx, "packed", dir)
	if err != nil {
		t.Fatalf("pull packed: %v", err)
	}
	if p != filepath.Join(dir, "toy") {
		t.Errorf("packed path %s", p)
	}
	if data, _ := os.ReadFile(filepath.Join(p, "model.sqlite")); string(data) != "data" {
		t.Errorf("unpacked contents %q", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "toy.tar.gz")); !os.IsNotExist(err) {
		t.Errorf("archive not removed: %v", err)
	}

	if _, err := c.Pull(ctx, "missing", dir); err == nil {
		t.Error("expected error for 404")
	}
}

func TestPullRemovesTruncatedDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, buf, err := w.(http.Hijacker).Hijack()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = buf.WriteString("HTTP/1.1 200 OK\r\nContent-Length: 100\r\n\r\npartial")
		_ = buf.Flush()
	}))
	defer srv.Close()

	c := &Catalog{
		Entries: map[string]Entry{"toy": {Name: "toy", URL: srv.URL + "/toy.h5"}},
		Client:  srv.Client(),
	}
	dir := t.TempDir()
	if _, err := c.Pull(context.Background(), "toy", dir); err == nil {
		t.Fatal("expected error for truncated body")
	}
	if _, err := os.Stat(filepath.Join(dir, "toy.h5")); !os.IsNotExist(err) {
		t.Errorf("partial file left behind: %v", err)
	}
}

func TestUntarRejectsEscape(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "evil.tar.gz")
	if err := os.WriteFile(path, tarGz(t, map[string]string{"../evil": "x"}), 0644); err != nil {
		t.Fatal(err)
	}
	if err := untar(path, filepath.Join(dir, "out")); err == nil {
		t.Error("expected error for escaping entry")
	}
}
