package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/postclean/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the cleaner over HTTP",
	Long: `Serve exposes the cleaner to other services:

  GET  /healthz      liveness and version
  POST /v1/clean     {"content": "...", "preset": "default"} -> cleaned content
  POST /v1/analyze   {"content": "..."} -> issues found, nothing changed

Content that cannot be made safe is answered with 422 and status
"pending_review"; the submitted markup is never echoed back.

Examples:
  postclean serve --addr :8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().String("max-body-size", "", "largest accepted request body, e.g. 4MiB")

	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.max_body_size", serveCmd.Flags().Lookup("max-body-size"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	srv := server.New(cfg.Server, cfg.Scrub.Preset, cfg.Scrub.Cleaner())
	return srv.ListenAndServe(ctx)
}
