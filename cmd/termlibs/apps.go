package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/termlibs/termlibs/internal/apps"
)

var appsJSON bool

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List the supported apps",
	Long:  `List the apps in the registry and where their releases are published.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runApps(os.Stdout, registry, appsJSON, stdoutIsTerminal()); err != nil {
			printError(err, "")
			exitWithCode(ExitGeneral)
		}
	},
}

func init() {
	appsCmd.Flags().BoolVar(&appsJSON, "json", false, "Output in JSON format")
}

func runApps(w io.Writer, reg *apps.Registry, asJSON, aligned bool) error {
	list := make([]apps.App, 0, reg.Len())
	for _, name := range reg.Names() {
		a, _ := reg.Get(name)
		list = append(list, a)
	}
	if asJSON {
		return printJSON(w, list)
	}

	t := newTable(w, aligned, "NAME", "SOURCE", "REPO")
	for _, a := range list {
		t.row(a.Name, string(a.Source), a.Repo)
	}
	if err := t.flush(); err != nil {
		return fmt.Errorf("writing table: %w", err)
	}
	return nil
}
