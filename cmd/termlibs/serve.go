package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/termlibs/termlibs/internal/log"
	"github.com/termlibs/termlibs/internal/release"
	"github.com/termlibs/termlibs/internal/server"
	"github.com/termlibs/termlibs/internal/site"
)

var (
	servePort     int
	serveListenIP string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP service",
	Long: `Start the HTTP service that serves install scripts, the asset API and
the static pages. The listen address, log level, GitHub token and limits
come from the environment (PORT, LISTEN_IP, LOG_LEVEL, GITHUB_TOKEN,
TERMLIBS_API_TIMEOUT, TERMLIBS_CACHE_TTL, TERMLIBS_MAX_CONNS) and can be
overridden with flags. The service stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("port") {
			cfg.Port = servePort
		}
		if cmd.Flags().Changed("listen-ip") {
			cfg.ListenIP = serveListenIP
		}

		pages, err := site.New()
		if err != nil {
			printError(err, "")
			exitWithCode(ExitGeneral)
		}

		logger := log.Default()
		srv := server.New(cfg, registry, release.New(cfg, release.WithLogger(logger)), pages, logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Info("serving apps", "count", registry.Len(), "authenticated", cfg.GitHubToken != "", "cache_ttl", cfg.CacheTTL)
		if err := srv.ListenAndServe(ctx); err != nil {
			printError(err, "")
			exitWithCode(ExitGeneral)
		}
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "TCP port to listen on (env PORT)")
	serveCmd.Flags().StringVar(&serveListenIP, "listen-ip", "", "Address to bind (env LISTEN_IP)")
}
