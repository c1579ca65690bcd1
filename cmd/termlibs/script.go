package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/termlibs/termlibs/internal/apps"
	"github.com/termlibs/termlibs/internal/asset"
	"github.com/termlibs/termlibs/internal/log"
	"github.com/termlibs/termlibs/internal/platform"
	"github.com/termlibs/termlibs/internal/script"
	"github.com/termlibs/termlibs/internal/server"
)

var (
	scriptVersion string
	scriptPrefix  string
	scriptOS      string
	scriptArch    string
)

var scriptCmd = &cobra.Command{
	Use:   "script <app>",
	Short: "Print the install script for an app",
	Long: `Print the shell script the service would return for an app, without
running it. The target defaults to linux-amd64, like the service.

Examples:
  termlibs script yq | sh
  termlibs script helm --version v3.16.2 --prefix /usr/local`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := script.Options{App: args[0], Version: scriptVersion, Prefix: scriptPrefix}
		target := platform.ParseTarget(scriptOS, scriptArch)
		code, err := runScript(cmd.Context(), os.Stdout, registry, newFetcher(cfg), opts, target)
		if err != nil {
			printError(err, args[0])
		}
		exitWithCode(code)
	},
}

func init() {
	scriptCmd.Flags().StringVar(&scriptVersion, "version", "", "Release tag (default latest)")
	scriptCmd.Flags().StringVar(&scriptPrefix, "prefix", "", "Install prefix (default $HOME/.local)")
	scriptCmd.Flags().StringVar(&scriptOS, "os", "", "Target operating system (default linux)")
	scriptCmd.Flags().StringVar(&scriptArch, "arch", "", "Target architecture (default amd64)")
}

func runScript(ctx context.Context, w io.Writer, reg *apps.Registry, fetcher server.Fetcher, opts script.Options, target platform.Target) (int, error) {
	app, err := reg.Lookup(opts.App)
	if err != nil {
		return ExitUnknownApp, err
	}
	owner, repo, err := app.GitHubRepo()
	if err != nil {
		return ExitGeneral, err
	}
	if target.IsUnknown() {
		return ExitUsage, errUnknownTarget(target)
	}

	opts = opts.WithDefaults()
	rel, err := fetcher.Fetch(ctx, owner, repo, opts.Version)
	if err != nil {
		return exitCodeFor(err), err
	}

	data := script.Data{
		Options:   opts,
		Target:    target,
		Downloads: asset.NewMatcher(log.Default()).Match(rel.Candidates, target),
	}
	if err := script.Render(w, data); err != nil {
		return ExitGeneral, err
	}
	if _, ok := data.Pick(); !ok {
		return ExitNoMatch, nil
	}
	return ExitSuccess, nil
}
