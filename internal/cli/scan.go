package cli

import (
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/mariellemanlulu/irida-uploader/internal/core"
	"github.com/mariellemanlulu/irida-uploader/internal/parsers"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <root-directory>",
		Short: "List run directories and their upload statuses",
		Long: `List every immediate child of a root directory with its upload status.
Directories missing required files are reported INVALID along with the
files they lack; nothing is uploaded or modified.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := loadConfigOffline()
			if err != nil {
				logger.Errorf("configuration error: %v", err)
				exitCode = 1
				return
			}

			parser, err := core.NewParser(cfg.Parser)
			if err != nil {
				logger.Errorf("%v", err)
				exitCode = 1
				return
			}

			runs, err := parsers.FindRuns(args[0], parser)
			if err != nil {
				logger.Errorf("cannot scan %s: %v", args[0], err)
				exitCode = 1
				return
			}

			if len(runs) == 0 {
				logger.Infof("no run directories found under %s", args[0])
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Directory", "Status", "Missing Files"})
			for _, run := range runs {
				table.Append([]string{
					run.Path,
					string(run.Status),
					strings.Join(run.MissingFiles, ", "),
				})
			}
			table.Render()
		},
	}
}
