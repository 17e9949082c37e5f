package cmd

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yeisme/kitvault/pkg/kit"
)

var classifyCmd = &cobra.Command{
	Use:   "classify FILE...",
	Short: "show the kind, content type and allowed categories of files",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		model := kit.DefaultCategoryModel()

		rows := make([][]string, 0, len(args))
		for _, arg := range args {
			name := filepath.Base(arg)
			kind := kit.Classify(name, "")

			cats := "-"
			if kind != kit.KindUnknown {
				cats = strings.Join(model.CategoriesFor(kind), ", ")
			}

			rows = append(rows, []string{name, kind.String(), kit.DefaultContentType(name), cats})
		}

		renderTable(cmd.OutOrStdout(), []string{"File", "Kind", "Content-Type", "Categories"}, rows)
	},
}

func registerClassifyCommands() {
	rootCmd.AddCommand(classifyCmd)
}
