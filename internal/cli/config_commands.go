package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mariellemanlulu/irida-uploader/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the uploader configuration file",
	}
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a template configuration file",
		Run: func(cmd *cobra.Command, args []string) {
			path := cfgFile
			if path == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					logger.Errorf("%v", err)
					exitCode = 1
					return
				}
				path = defaultPath
			}

			if err := config.Default().Save(path); err != nil {
				logger.Errorf("cannot write config: %v", err)
				exitCode = 1
				return
			}
			logger.Infof("wrote configuration template to %s", path)
			logger.Infof("fill in base_url, client credentials and username before uploading")
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := loadConfigOffline()
			if err != nil {
				logger.Errorf("configuration error: %v", err)
				exitCode = 1
				return
			}

			fmt.Printf("base_url:      %s\n", cfg.BaseURL)
			fmt.Printf("client_id:     %s\n", cfg.ClientID)
			fmt.Printf("client_secret: %s\n", mask(cfg.ClientSecret))
			fmt.Printf("username:      %s\n", cfg.Username)
			fmt.Printf("password:      %s\n", mask(cfg.Password))
			fmt.Printf("parser:        %s\n", cfg.Parser)
			fmt.Printf("proxy mode:    %s\n", cfg.Proxy.Mode)
			fmt.Printf("cloud backend: %s\n", cfg.Cloud.Backend)
		},
	}
}

// mask hides a secret while showing whether one is set at all.
func mask(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	return "********"
}
