package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/termlibs/termlibs/internal/asset"
	"github.com/termlibs/termlibs/internal/platform"
)

var classifyJSON bool

var classifyCmd = &cobra.Command{
	Use:   "classify <filename>...",
	Short: "Show how asset filenames are classified",
	Long: `Classify release asset filenames by operating system, architecture and
file kind, exactly as the installer does when it picks an asset.

Examples:
  termlibs classify yq_linux_amd64.tar.gz
  termlibs classify --json jq-macos-arm64 jq-windows-amd64.exe`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runClassify(os.Stdout, args, classifyJSON, stdoutIsTerminal()); err != nil {
			printError(err, "")
			exitWithCode(ExitGeneral)
		}
	},
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "Output in JSON format")
}

// classification is one classified filename.
type classification struct {
	Name   string          `json:"name"`
	Target platform.Target `json:"target"`
	OS     string          `json:"os"`
	Arch   string          `json:"arch"`
	Kind   asset.FileKind  `json:"kind"`
}

func classifyNames(names []string) []classification {
	out := make([]classification, 0, len(names))
	for _, n := range names {
		t := platform.Identify(n)
		out = append(out, classification{
			Name:   n,
			Target: t,
			OS:     t.OS.String(),
			Arch:   t.Arch.String(),
			Kind:   asset.IdentifyKind(n),
		})
	}
	return out
}

func runClassify(w io.Writer, names []string, asJSON, aligned bool) error {
	results := classifyNames(names)
	if asJSON {
		return printJSON(w, results)
	}

	t := newTable(w, aligned, "NAME", "OS", "ARCH", "KIND")
	for _, r := range results {
		t.row(r.Name, r.OS, r.Arch, r.Kind.String())
	}
	if err := t.flush(); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}
	return nil
}
