// Package cli provides the command-line interface for irida-uploader.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mariellemanlulu/irida-uploader/internal/config"
	"github.com/mariellemanlulu/irida-uploader/internal/logging"
	"github.com/mariellemanlulu/irida-uploader/internal/version"
)

var (
	// Global flags
	cfgFile    string
	parserFlag string
	verbose    bool
	debug      bool

	// Global logger, initialized before any command runs.
	logger *logging.Logger

	// exitCode accumulates the process exit code across command Run
	// functions; core never calls os.Exit.
	exitCode int
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "irida-uploader",
		Short: "Upload sequencing runs to IRIDA",
		Long: `irida-uploader ` + version.Version + ` - Built: ` + version.BuildTime + `
Discovers, validates and uploads sequencing instrument run directories
to an IRIDA instance. Each run directory keeps a durable status marker
so interrupted uploads can be retried safely.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewCLILogger()
			if verbose || debug {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&parserFlag, "parser", "", "Platform parser: nextseq or directory (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")

	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd := NewRootCmd()
	rootCmd.SetContext(ctx)

	exitCode = 0
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return exitCode
}

// loadConfig loads the configuration, applies flag overrides and checks it
// can support an upload attempt. The IRIDA password is prompted for when
// the config omits it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if parserFlag != "" {
		cfg.Parser = parserFlag
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Password == "" {
		password, err := promptPassword(cfg.Username)
		if err != nil {
			return nil, err
		}
		cfg.Password = password
	}

	return cfg, nil
}

// loadConfigOffline loads the configuration for commands that never
// contact the server. Only the parser selection is checked, so a config
// still missing its server details does not block local diagnostics.
func loadConfigOffline() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if parserFlag != "" {
		cfg.Parser = parserFlag
	}

	if err := cfg.ValidateParser(); err != nil {
		return nil, err
	}

	return cfg, nil
}
