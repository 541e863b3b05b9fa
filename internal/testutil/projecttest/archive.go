// SPDX-License-Identifier: MPL-2.0

package projecttest

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spmkit/spm/pkg/project"
)

// WriteArchive writes p and the given payload files into dir/name as a zip
// archive and returns its path.
func WriteArchive(tb testing.TB, dir, name string, p *project.Project, payloads map[string][]byte) string {
	tb.Helper()

	doc, err := p.Marshal()
	if err != nil {
		tb.Fatalf("failed to marshal project: %v", err)
	}
	files := map[string][]byte{project.DocumentName: doc}
	for file, data := range payloads {
		files[file] = data
	}
	return WriteZip(tb, filepath.Join(dir, name), files)
}

// WriteZip writes files into a zip archive at path and returns path.
func WriteZip(tb testing.TB, path string, files map[string][]byte) string {
	tb.Helper()

	f, err := os.Create(path)
	if err != nil {
		tb.Fatalf("failed to create %s: %v", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			tb.Errorf("failed to close %s: %v", path, closeErr)
		}
	}()

	zw := zip.NewWriter(f)
	for name, data := range files {
		w, err := zw.Create(name)
		if err != nil {
			tb.Fatalf("failed to add %s: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			tb.Fatalf("failed to write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("failed to finish %s: %v", path, err)
	}
	return path
}

// ReadArchive returns the parsed project and every other file of an archive.
func ReadArchive(tb testing.TB, path string) (*project.Project, map[string][]byte) {
	tb.Helper()

	zr, err := zip.OpenReader(path)
	if err != nil {
		tb.Fatalf("failed to open %s: %v", path, err)
	}
	defer func() {
		if closeErr := zr.Close(); closeErr != nil {
			tb.Errorf("failed to close %s: %v", path, closeErr)
		}
	}()

	var p *project.Project
	files := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			tb.Fatalf("failed to open entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		if closeErr := rc.Close(); closeErr != nil {
			tb.Errorf("failed to close entry %s: %v", f.Name, closeErr)
		}
		if err != nil {
			tb.Fatalf("failed to read entry %s: %v", f.Name, err)
		}
		if f.Name == project.DocumentName {
			p, err = project.Parse(data)
			if err != nil {
				tb.Fatalf("failed to parse %s: %v", path, err)
			}
			continue
		}
		files[f.Name] = data
	}
	if p == nil {
		tb.Fatalf("%s has no %s", path, project.DocumentName)
	}
	return p, files
}
