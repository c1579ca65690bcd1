package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/termlibs/termlibs/internal/apps"
	"github.com/termlibs/termlibs/internal/asset"
	"github.com/termlibs/termlibs/internal/config"
	"github.com/termlibs/termlibs/internal/log"
	"github.com/termlibs/termlibs/internal/platform"
	"github.com/termlibs/termlibs/internal/release"
	"github.com/termlibs/termlibs/internal/server"
)

// newFetcher builds the release source. It can be overridden for testing.
var newFetcher = func(c config.Config) server.Fetcher {
	return release.New(c)
}

var (
	matchVersion string
	matchOS      string
	matchArch    string
	matchJSON    bool
)

var matchCmd = &cobra.Command{
	Use:   "match <app>",
	Short: "List the release assets that match a platform",
	Long: `Fetch an app's release and list the assets built for a platform, in the
order the installer would consider them. The platform defaults to the host.

Exit codes:
  0  at least one asset matched
  3  unknown app
  4  release or tag not found
  5  GitHub could not be reached
  6  no asset matches the platform

Examples:
  termlibs match yq
  termlibs match jq --version jq-1.7.1 --os darwin --arch arm64`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		target := platform.HostTarget()
		if matchOS != "" || matchArch != "" {
			target = platform.ParseTarget(orDefault(matchOS, target.OS.String()), orDefault(matchArch, target.Arch.String()))
		}
		req := matchRequest{
			App:     args[0],
			Version: matchVersion,
			Target:  target,
			JSON:    matchJSON,
			Aligned: stdoutIsTerminal(),
		}
		code, err := runMatch(cmd.Context(), os.Stdout, registry, newFetcher(cfg), req)
		if err != nil {
			printError(err, args[0])
		}
		exitWithCode(code)
	},
}

func init() {
	matchCmd.Flags().StringVar(&matchVersion, "version", "", "Release tag (default latest)")
	matchCmd.Flags().StringVar(&matchOS, "os", "", "Target operating system (default host)")
	matchCmd.Flags().StringVar(&matchArch, "arch", "", "Target architecture (default host)")
	matchCmd.Flags().BoolVar(&matchJSON, "json", false, "Output in JSON format")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

type matchRequest struct {
	App     string
	Version string
	Target  platform.Target
	JSON    bool
	Aligned bool
}

type matchOutput struct {
	App     string             `json:"app"`
	Tag     string             `json:"tag"`
	Target  platform.Target    `json:"target"`
	Matches []server.AssetJSON `json:"matches"`
}

// runMatch looks up req and writes the matching assets to w. It returns
// the process exit code and, for failures, the error to report.
func runMatch(ctx context.Context, w io.Writer, reg *apps.Registry, fetcher server.Fetcher, req matchRequest) (int, error) {
	app, err := reg.Lookup(req.App)
	if err != nil {
		return ExitUnknownApp, err
	}
	owner, repo, err := app.GitHubRepo()
	if err != nil {
		return ExitGeneral, err
	}
	if req.Target.IsUnknown() {
		return ExitUsage, errUnknownTarget(req.Target)
	}

	rel, err := fetcher.Fetch(ctx, owner, repo, req.Version)
	if err != nil {
		return exitCodeFor(err), err
	}

	matches := asset.NewMatcher(log.Default()).Match(rel.Candidates, req.Target)
	out := matchOutput{App: app.Name, Tag: rel.Tag, Target: req.Target, Matches: make([]server.AssetJSON, 0, len(matches))}
	for _, m := range matches {
		a := server.AssetJSON{Name: m.Name, Label: m.Label, ContentType: m.ContentType, Size: m.Size, Target: m.Target, Kind: m.Kind}
		if m.URL != nil {
			a.URL = m.URL.String()
		}
		out.Matches = append(out.Matches, a)
	}

	if req.JSON {
		if err := printJSON(w, out); err != nil {
			return ExitGeneral, err
		}
	} else {
		t := newTable(w, req.Aligned, "NAME", "KIND", "SIZE", "URL")
		for _, m := range out.Matches {
			t.row(m.Name, m.Kind.String(), strconv.FormatUint(m.Size, 10), m.URL)
		}
		if err := t.flush(); err != nil {
			return ExitGeneral, err
		}
	}

	if len(out.Matches) == 0 {
		return ExitNoMatch, fmt.Errorf("no asset of %s %s matches %s", app.Name, rel.Tag, req.Target)
	}
	return ExitSuccess, nil
}

func exitCodeFor(err error) int {
	if errors.Is(err, apps.ErrUnknownApp) {
		return ExitUnknownApp
	}
	switch release.Classify(err) {
	case release.ErrKindNotFound:
		return ExitReleaseNotFound
	case release.ErrKindNetwork, release.ErrKindTimeout, release.ErrKindRateLimit:
		return ExitNetwork
	default:
		return ExitGeneral
	}
}
