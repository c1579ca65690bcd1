// Package errmsg formats errors for the command line with likely causes and
// suggestions.
package errmsg

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/termlibs/termlibs/internal/apps"
	"github.com/termlibs/termlibs/internal/release"
)

// ErrorContext provides additional context for error formatting
type ErrorContext struct {
	App string // the app being looked up, for suggestions
}

// Format returns err's message followed by possible causes and suggestions
// when the error is one termlibs knows how to explain. ctx may be nil.
func Format(err error, ctx *ErrorContext) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, apps.ErrUnknownApp) {
		return formatUnknownApp(err)
	}

	var relErr *release.Error
	if errors.As(err, &relErr) {
		return formatReleaseError(relErr, ctx)
	}

	return err.Error()
}

// Fprint writes the formatted error to w.
func Fprint(w io.Writer, err error, ctx *ErrorContext) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "Error: %s\n", strings.TrimRight(Format(err, ctx), "\n"))
}

func formatUnknownApp(err error) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n\nSuggestions:\n")
	sb.WriteString("  - Run 'termlibs apps' to list the supported apps\n")
	sb.WriteString("  - Pass --apps with a registry file that defines it\n")
	return sb.String()
}

func formatReleaseError(err *release.Error, ctx *ErrorContext) string {
	var sb strings.Builder
	sb.WriteString(err.Error())
	sb.WriteString("\n")

	switch err.Kind {
	case release.ErrKindNotFound:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - The version tag does not exist\n")
		sb.WriteString("  - The project has not published a release yet\n")
	case release.ErrKindRateLimit:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - Too many GitHub API requests from this address\n")
	case release.ErrKindNetwork, release.ErrKindTimeout:
		sb.WriteString("\nPossible causes:\n")
		sb.WriteString("  - Network connectivity issue\n")
		sb.WriteString("  - GitHub temporarily unavailable\n")
	}

	suggestion := err.Suggestion()
	if suggestion == "" && (ctx == nil || ctx.App == "") {
		return sb.String()
	}
	sb.WriteString("\nSuggestions:\n")
	if suggestion != "" {
		fmt.Fprintf(&sb, "  - %s\n", suggestion)
	}
	if ctx != nil && ctx.App != "" && err.Kind == release.ErrKindNotFound {
		fmt.Fprintf(&sb, "  - Omit --version to install the latest %s release\n", ctx.App)
	}
	return sb.String()
}
