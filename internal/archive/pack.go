// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"github.com/spmkit/spm/pkg/project"
)

// Pack writes the workspace into archivePath. The archive is first written to
// a temporary file in the destination directory and then renamed over the
// destination.
func (w *Workspace) Pack(ctx context.Context, archivePath string) (err error) {
	absOutputPath, err := filepath.Abs(archivePath)
	if err != nil {
		return fmt.Errorf("failed to resolve output path: %w", err)
	}
	names, err := w.Files()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(absOutputPath), ".spm-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary archive: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath) // Best-effort cleanup on failure
		}
	}()

	written, err := w.writeZip(ctx, tmp, names)
	if closeErr := tmp.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}

	if err = os.Rename(tmpPath, absOutputPath); err != nil {
		return fmt.Errorf("failed to replace %s: %w", archivePath, err)
	}
	log.FromContext(ctx).Debug("archive packed", "archive", archivePath, "files", written, "skipped", len(names)-written)
	return nil
}

func (w *Workspace) writeZip(ctx context.Context, out *os.File, names []string) (written int, err error) {
	zipWriter := zip.NewWriter(out)
	defer func() {
		if closeErr := zipWriter.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for _, name := range names {
		if err = ctx.Err(); err != nil {
			return written, err
		}
		if w.excluded(name) {
			continue
		}

		fileData, readErr := os.ReadFile(w.Path(name))
		if readErr != nil {
			return written, fmt.Errorf("failed to read file %s: %w", name, readErr)
		}

		header := &zip.FileHeader{Name: name, Method: zip.Deflate}
		header.SetMode(0o644)
		writer, writerErr := zipWriter.CreateHeader(header)
		if writerErr != nil {
			return written, fmt.Errorf("failed to create ZIP entry: %w", writerErr)
		}
		if _, writeErr := writer.Write(fileData); writeErr != nil {
			return written, fmt.Errorf("failed to write file data: %w", writeErr)
		}
		written++
	}
	return written, nil
}

func (w *Workspace) excluded(name string) bool {
	if name == project.DocumentName {
		return false
	}
	for _, pattern := range w.opts.Exclude {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
