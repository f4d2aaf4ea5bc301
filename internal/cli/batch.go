package cli

import (
	"github.com/spf13/cobra"

	"github.com/mariellemanlulu/irida-uploader/internal/cloud"
	"github.com/mariellemanlulu/irida-uploader/internal/core"
)

func newBatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch <root-directory>",
		Short: "Upload the first new run found under a root directory",
		Long: `Scan the immediate children of a root directory and upload the first
one with all required files present and status NEW. Intended for cron
style scheduling on instrument drop-off directories; finding no new run
is a success.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := loadConfig()
			if err != nil {
				logger.Errorf("configuration error: %v", err)
				exitCode = 1
				return
			}

			orch := core.NewOrchestrator(cfg, logger, core.ConnectorFor(cfg, logger))

			lister, err := cloud.NewLister(cmd.Context(), cfg)
			if err != nil {
				logger.Errorf("cannot configure cloud backend: %v", err)
				exitCode = 1
				return
			}
			orch.Lister = lister

			exitCode = orch.UploadFirstNewRun(cmd.Context(), args[0])
		},
	}
}
