package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/termlibs/termlibs/internal/apps"
	"github.com/termlibs/termlibs/internal/buildinfo"
	"github.com/termlibs/termlibs/internal/config"
	"github.com/termlibs/termlibs/internal/log"
)

var (
	// cfg is the process configuration, loaded before any command runs
	cfg config.Config

	// registry holds the supported apps
	registry *apps.Registry

	appsFile string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "termlibs",
	Short: "Install command line tools from their GitHub releases",
	Long: `termlibs finds the release asset built for a platform and serves a
shell script that installs it.

Run 'termlibs serve' to start the HTTP service, or use the other commands
to inspect how assets are classified and matched.`,
	Version:       buildinfo.Read().String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		switch {
		case cmd.Flags().Changed("log-level"):
			cfg.LogLevel = logLevel
		case os.Getenv(config.EnvLogLevel) == "" && cmd != serveCmd:
			// per-asset debug output only helps the long running server
			cfg.LogLevel = "WARN"
		}
		if cmd.Flags().Changed("apps") {
			cfg.AppsFile = appsFile
		}
		log.SetDefault(log.NewText(os.Stderr, log.ParseLevel(cfg.LogLevel)))

		r, err := apps.Load(cfg.AppsFile)
		if err != nil {
			return err
		}
		registry = r
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&appsFile, "apps", "", "TOML file replacing the built-in app registry (env "+config.EnvAppsFile+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "DEBUG, INFO, WARN or ERROR (env "+config.EnvLogLevel+")")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(appsCmd)
	rootCmd.AddCommand(scriptCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitWithCode(ExitGeneral)
	}
}
