// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spmkit/spm/internal/app"
	"github.com/spmkit/spm/internal/config"
	"github.com/spmkit/spm/internal/testutil/projecttest"
	"github.com/spmkit/spm/pkg/types"
)

type stubConfigProvider struct {
	cfg *config.Config
	err error
}

func (p *stubConfigProvider) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	return p.cfg, p.err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.TempDir = config.DirPath(t.TempDir())
	cfg.UI.ColorScheme = config.ColorSchemeDark
	return cfg
}

// runCLI executes the root command with args and returns captured output.
func runCLI(t *testing.T, provider ConfigProvider, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	root := NewRootCommand(NewApp(Dependencies{Config: provider, Stdout: &outBuf, Stderr: &errBuf}))
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return outBuf.String(), errBuf.String(), err
}

// writeFixtures writes host.sb3 with a "Main" sprite and lib.sb3 whose
// "Library" sprite defines one procedure and is named lib 1.2.0 by spm.toml.
func writeFixtures(t *testing.T) (hostPath, modPath string) {
	t.Helper()
	dir := t.TempDir()

	main := projecttest.NewTarget("Main",
		projecttest.WithBlock("b1", projecttest.Stack("event_whenflagclicked", "", "")),
	)
	hostPath = projecttest.WriteArchive(t, dir, "host.sb3", projecttest.NewProject(main), nil)

	lib := projecttest.NewTarget("Library",
		projecttest.WithBlock("def1", projecttest.Definition("proto1", "")),
		projecttest.WithBlock("proto1", projecttest.Prototype("def1", "jump", nil)),
		projecttest.WithVariable("v1", "height", 0),
	)
	modPath = projecttest.WriteArchive(t, dir, "lib.sb3", projecttest.NewProject(lib), map[string][]byte{
		"spm.toml": []byte("[module]\nname = \"lib\"\nversion = \"1.2.0\"\n"),
	})
	return hostPath, modPath
}

func requireExitCode(t *testing.T, err error, want types.ExitCode) {
	t.Helper()
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %T: %v", err, err)
	}
	if exitErr.Code != want {
		t.Fatalf("exit code = %d, want %d (%v)", exitErr.Code, want, exitErr.Err)
	}
}

func TestCLI_AddListRemove(t *testing.T) {
	t.Parallel()

	provider := &stubConfigProvider{cfg: testConfig(t)}
	hostPath, modPath := writeFixtures(t)

	stdout, _, err := runCLI(t, provider, "add", hostPath, modPath)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	for _, want := range []string{"Installed", "lib", "1.2.0", "Main", "Wrote"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("add output missing %q:\n%s", want, stdout)
		}
	}

	stdout, _, err = runCLI(t, provider, "list", hostPath, "--json")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var listed app.ListResult
	if err := json.Unmarshal([]byte(stdout), &listed); err != nil {
		t.Fatalf("list --json output is not JSON: %v\n%s", err, stdout)
	}
	if listed.Sprite != "Main" || listed.Name != "host" {
		t.Errorf("listed sprite/name = %q/%q", listed.Sprite, listed.Name)
	}
	if len(listed.Modules) != 1 || listed.Modules[0].Name != "lib" || listed.Modules[0].Version != "1.2.0" {
		t.Errorf("listed modules = %+v", listed.Modules)
	}

	stdout, _, err = runCLI(t, provider, "remove", hostPath, "lib")
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if !strings.Contains(stdout, "Removed") {
		t.Errorf("remove output = %q", stdout)
	}

	stdout, _, err = runCLI(t, provider, "list", hostPath)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(stdout, "no modules installed") {
		t.Errorf("list after remove = %q", stdout)
	}
}

func TestCLI_DryRunLeavesHostUntouched(t *testing.T) {
	t.Parallel()

	provider := &stubConfigProvider{cfg: testConfig(t)}
	hostPath, modPath := writeFixtures(t)
	before, err := os.ReadFile(hostPath)
	if err != nil {
		t.Fatal(err)
	}

	stdout, _, err := runCLI(t, provider, "add", hostPath, modPath, "--dry-run", "--name", "jumper")
	if err != nil {
		t.Fatalf("add --dry-run failed: %v", err)
	}
	if !strings.Contains(stdout, "Dry run") || !strings.Contains(stdout, "jumper") {
		t.Errorf("dry run output = %q", stdout)
	}

	after, err := os.ReadFile(hostPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Error("dry run rewrote the host archive")
	}
}

func TestCLI_ExitCodes(t *testing.T) {
	t.Parallel()

	provider := &stubConfigProvider{cfg: testConfig(t)}
	hostPath, modPath := writeFixtures(t)
	notAnArchive := filepath.Join(t.TempDir(), "notes.sb3")
	if err := os.WriteFile(notAnArchive, []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		args       []string
		wantCode   types.ExitCode
		wantStderr string
	}{
		{
			name:       "missing host archive",
			args:       []string{"add", filepath.Join(t.TempDir(), "missing.sb3"), modPath},
			wantCode:   types.ExitInputFormat,
			wantStderr: "failed to add module",
		},
		{
			name:       "host is not a zip",
			args:       []string{"list", notAnArchive},
			wantCode:   types.ExitInputFormat,
			wantStderr: "failed to list modules",
		},
		{
			name:       "unknown module",
			args:       []string{"remove", hostPath, "ghost"},
			wantCode:   types.ExitNotFound,
			wantStderr: "failed to remove module: ghost",
		},
		{
			name:       "unknown host sprite",
			args:       []string{"add", hostPath, modPath, "--host-sprite", "Nobody"},
			wantCode:   types.ExitNotFound,
			wantStderr: "spm info",
		},
		{
			name:       "invalid module name",
			args:       []string{"add", hostPath, modPath, "--name", "9lives"},
			wantCode:   types.ExitFailure,
			wantStderr: "invalid module name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, stderr, err := runCLI(t, provider, tt.args...)
			requireExitCode(t, err, tt.wantCode)
			if !strings.Contains(stderr, tt.wantStderr) {
				t.Errorf("stderr missing %q:\n%s", tt.wantStderr, stderr)
			}
		})
	}
}

func TestCLI_Info(t *testing.T) {
	t.Parallel()

	provider := &stubConfigProvider{cfg: testConfig(t)}
	_, modPath := writeFixtures(t)

	stdout, _, err := runCLI(t, provider, "info", modPath)
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}
	for _, want := range []string{"Stage", "(stage)", "Library", "(sprite)", "blocks: 2"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("info output missing %q:\n%s", want, stdout)
		}
	}

	stdout, _, err = runCLI(t, provider, "info", modPath, "--json")
	if err != nil {
		t.Fatalf("info --json failed: %v", err)
	}
	var info app.InfoResult
	if err := json.Unmarshal([]byte(stdout), &info); err != nil {
		t.Fatalf("info --json output is not JSON: %v", err)
	}
	if len(info.Targets) != 2 {
		t.Errorf("targets = %d, want 2", len(info.Targets))
	}
}

func TestCLI_ConfigLoadFailure(t *testing.T) {
	t.Parallel()

	hostPath, _ := writeFixtures(t)
	provider := &stubConfigProvider{err: errors.New("config.cue:3:1: expected '}'")}

	_, stderr, err := runCLI(t, provider, "list", hostPath)
	requireExitCode(t, err, types.ExitFailure)
	if !strings.Contains(stderr, "failed to load configuration") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestCLI_ConfigDump(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Merge.PrivateMarker = "!"
	stdout, _, err := runCLI(t, &stubConfigProvider{cfg: cfg}, "config", "dump")
	if err != nil {
		t.Fatalf("config dump failed: %v", err)
	}
	if !strings.Contains(stdout, `private_marker: "!"`) {
		t.Errorf("dump output = %q", stdout)
	}
}

func TestServiceOptions(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.TempDir = "/var/tmp/spm"
	cfg.Archive.Exclude = []config.ExcludePattern{"**/*.wav"}
	cfg.Merge.HiddenMarker = "~"
	cfg.Merge.ResetPositions = false
	cfg.Defaults.HostSprite = "Player"

	opts := serviceOptions(cfg)
	if opts.TempDir != "/var/tmp/spm" || opts.HostSprite != "Player" {
		t.Errorf("opts = %+v", opts)
	}
	if len(opts.Exclude) != 1 || opts.Exclude[0] != "**/*.wav" {
		t.Errorf("Exclude = %v", opts.Exclude)
	}
	if opts.Merge.PrivateMarker != "#" || opts.Merge.HiddenMarker != "~" || opts.Merge.ResetPositions {
		t.Errorf("Merge = %+v", opts.Merge)
	}
}
