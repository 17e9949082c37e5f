// Package cmd kitvault 命令行：导入服务、清单导入以及若干辅助命令.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/kitvault/pkg/configs"
	"github.com/yeisme/kitvault/pkg/log"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:           configs.AppName,
		Short:         "Construction kit import API and ingest client",
		Version:       configs.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := configs.InitConfig(configPath); err != nil {
				return err
			}

			if debug {
				configs.GetConfig().Log.Level = "debug"
			}

			log.Init()

			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	registerServeCommands()
	registerIngestCommands()
	registerClassifyCommands()
	registerKitCommands()
	registerTapCommands()
	registerConfigsCommands()
	registerDBCommands()
	registerKVCommands()
	registerMQCommands()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
