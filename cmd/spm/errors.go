// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/charmbracelet/log"

	"github.com/spmkit/spm/internal/app"
	"github.com/spmkit/spm/internal/issue"
	"github.com/spmkit/spm/pkg/namespace"
	"github.com/spmkit/spm/pkg/project"
	"github.com/spmkit/spm/pkg/types"
)

// classifyError maps a command failure to an issue catalog ID and exit code.
// An issue already linked inside the chain wins over the sentinel mapping.
func classifyError(err error) (issue.Id, types.ExitCode) {
	issueID, code := issue.Id(0), types.ExitFailure

	var nf *app.NotFoundError
	switch {
	case errors.Is(err, fs.ErrPermission):
		issueID = issue.PermissionDeniedId
	case errors.Is(err, project.ErrInputFormat) && errors.Is(err, fs.ErrNotExist):
		issueID, code = issue.FileNotFoundId, types.ExitInputFormat
	case errors.Is(err, project.ErrInputFormat):
		issueID, code = issue.InputFormatId, types.ExitInputFormat
	case errors.Is(err, namespace.ErrMalformedGraph):
		issueID, code = issue.MalformedGraphId, types.ExitMalformedGraph
	case errors.As(err, &nf):
		code = types.ExitNotFound
		issueID = issue.SpriteNotFoundId
		if nf.Kind == app.KindModule {
			issueID = issue.ModuleNotFoundId
		}
	case errors.Is(err, namespace.ErrInvalidModuleName):
		issueID = issue.InvalidModuleNameId
	case errors.Is(err, app.ErrSelfMerge):
		issueID = issue.SelfMergeId
	}

	if _, linked := issue.Find(err); linked != nil {
		issueID = linked.Id()
	}
	return issueID, code
}

// actionable wraps err for display under operation and resource unless it
// already carries an operation of its own.
func actionable(err error, operation, resource string) error {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return err
	}
	issueID, _ := classifyError(err)
	return issue.NewErrorContext().
		WithOperation(operation).
		WithResource(resource).
		WithIssue(issueID).
		WithSuggestions(suggestionsFor(err)...).
		Wrap(err).
		BuildError()
}

// suggestionsFor returns the follow-up commands worth trying after err.
func suggestionsFor(err error) []string {
	var nf *app.NotFoundError
	switch {
	case errors.As(err, &nf) && nf.Kind == app.KindModule:
		return []string{"Run 'spm list " + nf.Archive + "' to see installed modules"}
	case errors.As(err, &nf):
		return []string{"Run 'spm info " + nf.Archive + "' to see the project's sprites"}
	case errors.Is(err, namespace.ErrInvalidModuleName):
		return []string{"Pass a valid name with --name"}
	case errors.Is(err, app.ErrNameClash):
		return []string{
			"Rename the module with --name",
			"Pick another host sprite with --host-sprite",
		}
	}
	return nil
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// renderError prints the one-line error, its suggestions and the issue card,
// then returns the ExitError the command should fail with.
func renderError(stderr io.Writer, err error, verbose bool, style string) *ExitError {
	issueID, code := classifyError(err)
	fmt.Fprintf(stderr, "%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))

	if catalogEntry := issue.Get(issueID); catalogEntry != nil {
		rendered, renderErr := catalogEntry.Render(style)
		if renderErr != nil {
			log.Warn("failed to render issue catalog entry", "issueID", issueID, "error", renderErr)
		} else {
			fmt.Fprint(stderr, rendered)
		}
	}
	return &ExitError{Code: code, Err: err}
}
