// Package catalog lists the published surrogate archives and downloads
// them.
package catalog

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/san-kum/nrsur/internal/dynamo"
)

// Entry is one downloadable surrogate. The archive name matches the last
// element of URL.
type Entry struct {
	Name        string
	URL         string
	Description string
	Refs        string
}

var known = []Entry{
	{
		Name: "NRSur7dq2",
		URL:  "https://zenodo.org/record/1215824/files/NRSur7dq2.h5",
		Description: "Precessing numerical-relativity surrogate for mass ratios 1 to 2 and " +
			"spin magnitudes up to 0.8, about 20 orbits before merger, modes up to ell = 4.",
		Refs: "https://arxiv.org/abs/1705.07089",
	},
	{
		Name: "SpEC_q1_10_NoSpin",
		URL:  "https://zenodo.org/record/1215824/files/SpEC_q1_10_NoSpin_nu5thDegPoly_exclude_2_0.h5",
		Description: "Multimode non-spinning surrogate built from SpEC simulations, " +
			"mass ratios 1 to 10, about 15 orbits before merger.",
		Refs: "http://arxiv.org/abs/1502.07758",
	},
	{
		Name: "NRSur4d2s_TDROM_grid12",
		URL:  "https://zenodo.org/record/1215824/files/NRSur4d2s_TDROM_grid12.h5",
		Description: "Fast time-domain surrogate for spinning binaries restricted to a " +
			"subspace of precessing configurations.",
		Refs: "https://journals.aps.org/prd/abstract/10.1103/PhysRevD.95.104023",
	},
	{
		Name: "NRSur4d2s_FDROM_grid12",
		URL:  "https://zenodo.org/record/1215824/files/NRSur4d2s_FDROM_grid12.h5",
		Description: "Fast frequency-domain surrogate for spinning binaries restricted to a " +
			"subspace of precessing configurations.",
		Refs: "https://journals.aps.org/prd/abstract/10.1103/PhysRevD.95.104023",
	},
	{
		Name: "EOBNRv2",
		URL:  "https://www.dropbox.com/s/uyliuy37uczu3ug/EOBNRv2.tar.gz",
		Description: "Single-mode surrogates for mass ratios 1 to 10 and modes (2,1), (2,2), " +
			"(3,3), (4,4), (5,5) without relative time or phase alignment.",
		Refs: "http://journals.aps.org/prx/abstract/10.1103/PhysRevX.4.031006",
	},
}

// Catalog resolves surrogate names to archives and fetches them.
type Catalog struct {
	Entries map[string]Entry
	Client  *http.Client
}

// Default is the catalog of published surrogates.
func Default() *Catalog {
	c := &Catalog{Entries: make(map[string]Entry, len(known)), Client: http.DefaultClient}
	for _, e := range known {
		c.Entries[e.Name] = e
	}
	return c
}

// List returns the entries sorted by name.
func (c *Catalog) List() []Entry {
	out := make([]Entry, 0, len(c.Entries))
	for _, e := range c.Entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DownloadPath is the default directory for pulled archives.
func DownloadPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "nrsur", "surrogate_downloads"), nil
}

// Pull downloads the named surrogate into dir and returns the path of the
// model file. A .tar.gz archive is unpacked and removed, and the returned
// path is the unpacked directory.
func (c *Catalog) Pull(ctx context.Context, name, dir string) (string, error) {
	e, ok := c.Entries[name]
	if !ok {
		return "", dynamo.Configf("catalog", "no surrogate named %q", name)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	fileName := path.Base(e.URL)
	dst := filepath.Join(dir, fileName)
	if err := c.download(ctx, e.URL, dst); err != nil {
		return "", fmt.Errorf("catalog: pull %s: %w", name, err)
	}

	if !strings.HasSuffix(fileName, ".tar.gz") {
		return dst, nil
	}
	out := filepath.Join(dir, strings.TrimSuffix(fileName, ".tar.gz"))
	if err := untar(dst, dir); err != nil {
		return "", fmt.Errorf("catalog: unpack %s: %w", fileName, err)
	}
	if err := os.Remove(dst); err != nil {
		return "", err
	}
	return out, nil
}

func (c *Catalog) download(ctx context.Context, url, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(dst)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}

// untar unpacks regular files and directories of a gzipped tar archive
// under dir, refusing entries that escape it.
func untar(archive, dir string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	root := filepath.Clean(dir) + string(os.PathSeparator)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target := filepath.Join(dir, hdr.Name)
		if !strings.HasPrefix(target, root) {
			return fmt.Errorf("entry %q escapes %s", hdr.Name, dir)
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			out, err := os.Create(target)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		}
	}
}
