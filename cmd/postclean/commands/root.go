// Package commands implements the CLI commands for postclean.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/postclean/internal/config"
	"github.com/jmylchreest/postclean/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "postclean",
	Short: "Sanitize stored blog post HTML",
	Long: `Postclean repairs blog post bodies imported from WordPress and similar
systems: it decodes entities, strips shortcodes, removes scripts, styles
and inline CSS, drops WordPress artifacts, repairs broken markup and
normalizes tags to a small semantic set.

Examples:
  # Clean a single file and print the result
  postclean clean post.html --stats

  # See what a bulk run would change without writing anything
  postclean bulk --dsn blog.db --dry-run --report report.json

  # Clean every row of a MySQL table
  postclean bulk --driver mysql --dsn "user:pass@tcp(localhost:3306)/blog" --table posts

  # Serve the cleaner over HTTP
  postclean serve --addr :8080`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default $HOME/.postclean.yaml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.BoolP("quiet", "q", false, "suppress progress output")
	flags.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	flags.Bool("json-logs", false, "log as JSON")
	flags.String("driver", config.DefaultDriver, "store driver: sqlite, mysql")
	flags.String("dsn", config.DefaultDSN, "store data source name")
	flags.String("table", config.DefaultTable, "table holding the posts")
	flags.String("preset", config.DefaultPreset, "cleaning preset: default, minimal, legacy")

	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("json_logs", flags.Lookup("json-logs"))
	_ = viper.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("store.driver", flags.Lookup("driver"))
	_ = viper.BindPFlag("store.dsn", flags.Lookup("dsn"))
	_ = viper.BindPFlag("store.table", flags.Lookup("table"))
	_ = viper.BindPFlag("scrub.preset", flags.Lookup("preset"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	config.Setup(viper.GetViper(), cfgFile)
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logError("%v", err)
	}
	return err
}

// setup loads the configuration and initializes logging. Every command
// that touches the store or the cleaner starts here.
func setup() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		Level: cfg.LogLevel,
		JSON:  viper.GetBool("json_logs"),
	})
	logger.Debug("configuration loaded",
		"config_file", viper.ConfigFileUsed(),
		"driver", cfg.Store.Driver,
		"table", cfg.Store.Table,
		"preset", cfg.Scrub.Preset)
	return cfg, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
