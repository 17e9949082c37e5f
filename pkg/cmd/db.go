package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/kitvault/pkg/configs"
	"github.com/yeisme/kitvault/pkg/internal/storage/db"
)

var (
	dbCmd = &cobra.Command{
		Use:   "db",
		Short: "Metadata store commands",
	}

	dbListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list registered database drivers",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			current := configs.GetConfig().DB.Driver()

			var rows [][]string
			for _, t := range db.GetRegisteredDBTypes() {
				rows = append(rows, []string{string(t), mark(t == current)})
			}

			renderTable(cmd.OutOrStdout(), []string{"Driver", "Configured"}, rows)
		},
	}
)

// registerDBCommands 注册数据库相关命令.
func registerDBCommands() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbListCmd)
}

func mark(ok bool) string {
	if ok {
		return "*"
	}

	return ""
}
