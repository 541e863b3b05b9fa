// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/spmkit/spm/pkg/project"
)

type (
	// Options controls where workspaces live and what Pack leaves out.
	Options struct {
		// TempDir is the parent of workspace directories. Empty means the OS default.
		TempDir string
		// Exclude holds doublestar patterns matched against file names on Pack.
		Exclude []string
	}

	// Workspace is an unpacked archive.
	Workspace struct {
		// Dir is the working directory holding project.json and payload files.
		Dir string
		// Source is the absolute path of the archive the workspace came from.
		Source string

		opts Options
	}
)

// Unpack extracts the archive at archivePath into a fresh workspace.
// The archive must be a zip container with a project.json entry; anything
// else is reported as a project.InputFormatError.
func Unpack(ctx context.Context, archivePath string, opts Options) (ws *Workspace, err error) {
	absPath, err := filepath.Abs(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve archive path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, &project.InputFormatError{Resource: archivePath, Reason: "cannot read archive", Err: err}
	}
	if info.IsDir() {
		return nil, &project.InputFormatError{Resource: archivePath, Reason: "is a directory, not an archive"}
	}

	zipReader, err := zip.OpenReader(absPath)
	if err != nil {
		return nil, &project.InputFormatError{Resource: archivePath, Reason: "not a zip archive", Err: err}
	}
	defer func() {
		if closeErr := zipReader.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if opts.TempDir != "" {
		if err = os.MkdirAll(opts.TempDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create temp root: %w", err)
		}
	}
	dir, err := os.MkdirTemp(opts.TempDir, "spm-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	ws = &Workspace{Dir: dir, Source: absPath, opts: opts}
	defer func() {
		if err != nil {
			_ = ws.Close() // Best-effort cleanup on failure
			ws = nil
		}
	}()

	hasDocument := false
	for _, file := range zipReader.File {
		if err = ctx.Err(); err != nil {
			return nil, err
		}
		if file.FileInfo().IsDir() {
			continue
		}

		// Project archives are flat; entries nested in folders land at the root.
		name := filepath.Base(filepath.FromSlash(file.Name))
		destPath := filepath.Join(dir, name)

		// Validate path doesn't escape the workspace (security check)
		relPath, relErr := filepath.Rel(dir, destPath)
		if relErr != nil || relPath == "." || strings.HasPrefix(relPath, "..") {
			return nil, &project.InputFormatError{Resource: archivePath, Reason: "invalid path in archive: " + file.Name}
		}

		if extractErr := extractFile(file, destPath); extractErr != nil {
			return nil, &project.InputFormatError{Resource: archivePath, Reason: "cannot extract " + file.Name, Err: extractErr}
		}
		if name == project.DocumentName {
			hasDocument = true
		}
	}
	if !hasDocument {
		return nil, &project.InputFormatError{Resource: archivePath, Reason: "missing " + project.DocumentName}
	}

	log.FromContext(ctx).Debug("archive unpacked", "archive", archivePath, "dir", dir, "entries", len(zipReader.File))
	return ws, nil
}

// Close removes the working directory. It is safe to call more than once.
func (w *Workspace) Close() error {
	if w == nil || w.Dir == "" {
		return nil
	}
	dir := w.Dir
	w.Dir = ""
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove workspace %s: %w", dir, err)
	}
	return nil
}

// Path returns the workspace path of a file name.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// ReadProject parses the workspace's project.json.
func (w *Workspace) ReadProject() (*project.Project, error) {
	data, err := os.ReadFile(w.Path(project.DocumentName))
	if err != nil {
		return nil, &project.InputFormatError{Resource: w.Source, Reason: "cannot read " + project.DocumentName, Err: err}
	}
	p, err := project.Parse(data)
	if err != nil {
		var formatErr *project.InputFormatError
		if errors.As(err, &formatErr) {
			formatErr.Resource = w.Source + ": " + formatErr.Resource
		}
		return nil, err
	}
	return p, nil
}

// WriteProject replaces the workspace's project.json.
func (w *Workspace) WriteProject(p *project.Project) error {
	data, err := p.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}
	if err := os.WriteFile(w.Path(project.DocumentName), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", project.DocumentName, err)
	}
	return nil
}

// Files lists the workspace file names, project.json first and the rest sorted.
func (w *Workspace) Files() ([]string, error) {
	entries, err := os.ReadDir(w.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspace: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	slices.SortFunc(names, func(a, b string) int {
		switch {
		case a == b:
			return 0
		case a == project.DocumentName:
			return -1
		case b == project.DocumentName:
			return 1
		default:
			return strings.Compare(a, b)
		}
	})
	return names, nil
}

// extractFile extracts a single file from the ZIP archive
func extractFile(file *zip.File, destPath string) (err error) {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := destFile.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	//nolint:gosec // G110: archives are user-supplied project files; size limits handled by filesystem
	_, err = io.Copy(destFile, rc)
	return err
}

func isNotExist(err error) bool { return errors.Is(err, fs.ErrNotExist) }
