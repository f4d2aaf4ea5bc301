package cli

import (
	"github.com/spf13/cobra"

	"github.com/mariellemanlulu/irida-uploader/internal/cloud"
	"github.com/mariellemanlulu/irida-uploader/internal/core"
)

func newUploadCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "upload <run-directory>",
		Short: "Upload a single run directory",
		Long: `Upload one sequencing run directory to IRIDA.

The directory must contain the platform's required files (sample sheet
plus any run-complete sentinel) and have status NEW. A directory whose
previous attempt left a PARTIAL or ERROR marker is retried with --force.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := loadConfig()
			if err != nil {
				logger.Errorf("configuration error: %v", err)
				exitCode = 1
				return
			}

			orch := core.NewOrchestrator(cfg, logger, core.ConnectorFor(cfg, logger))
			orch.ShowProgress = true

			lister, err := cloud.NewLister(cmd.Context(), cfg)
			if err != nil {
				logger.Errorf("cannot configure cloud backend: %v", err)
				exitCode = 1
				return
			}
			orch.Lister = lister

			exitCode = orch.UploadRun(cmd.Context(), args[0], force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Upload even when the directory status is not NEW")
	return cmd
}
