package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/kitvault/pkg/configs"
	"github.com/yeisme/kitvault/pkg/internal/storage/kv"
)

var (
	kvCmd = &cobra.Command{
		Use:     "kv",
		Short:   "Kit cache store commands",
		Aliases: []string{"keyvalue"},
	}

	kvListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list registered kv backends",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			current := configs.GetConfig().KV.Type

			var rows [][]string
			for _, t := range kv.Backends() {
				rows = append(rows, []string{string(t), mark(string(t) == current)})
			}

			renderTable(cmd.OutOrStdout(), []string{"Backend", "Configured"}, rows)
		},
	}
)

// registerKVCommands 注册 KV 相关命令.
func registerKVCommands() {
	rootCmd.AddCommand(kvCmd)
	kvCmd.AddCommand(kvListCmd)
}
