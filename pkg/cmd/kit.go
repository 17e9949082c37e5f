package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/kitvault/pkg/configs"
	"github.com/yeisme/kitvault/pkg/internal/client"
	"github.com/yeisme/kitvault/pkg/internal/ingest"
	"github.com/yeisme/kitvault/pkg/kit"
)

var (
	kitCmd = &cobra.Command{
		Use:   "kit",
		Short: "inspect and manage construction kits through the import API",
	}

	kitGetCmd = &cobra.Command{
		Use:   "get KIT_ID",
		Short: "list the contents of a kit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := ingest.LoadKit(cmd.Context(), newClient(), args[0])
			if err != nil {
				return err
			}

			printBatch(cmd, b)

			return nil
		},
	}

	kitCreateCmd = &cobra.Command{
		Use:   "create NAME",
		Short: "create a draft kit and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := newClient().CreateKit(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), id)

			return nil
		},
	}

	kitDeleteCmd = &cobra.Command{
		Use:     "delete KIT_ID",
		Short:   "discard a kit and its uploaded objects",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newClient().DeleteKit(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "discarded", args[0])

			return nil
		},
	}
)

func registerKitCommands() {
	kitCmd.AddCommand(kitGetCmd, kitCreateCmd, kitDeleteCmd)
	rootCmd.AddCommand(kitCmd)
}

func newClient() *client.Client {
	return client.New(configs.GetConfig().Client)
}

// printBatch 输出批次内容与组织状态.
func printBatch(cmd *cobra.Command, b *kit.Batch) {
	snap := b.Snapshot()

	rows := make([][]string, 0, len(snap.Records))
	for _, r := range snap.Records {
		state := "new"
		switch {
		case r.IsExisting && r.IsModified():
			state = "modified"
		case r.IsExisting:
			state = "existing"
		}

		missing := ""
		for i, f := range kit.MissingFields(&r) {
			if i > 0 {
				missing += ", "
			}

			missing += string(f)
		}

		rows = append(rows, []string{
			r.Name, r.Kind.String(), r.Category, r.ResolvedType(), mark(r.IsDefaultFullLoop), state, missing,
		})
	}

	renderTable(cmd.OutOrStdout(), []string{"File", "Kind", "Category", "Type", "Default", "State", "Missing"}, rows)

	if snap.KitID != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "kit %s: %d files, organized=%t, full loop=%t, submittable=%t\n",
			snap.KitID, len(snap.Records), snap.AllOrganized, snap.HasFullLoop, snap.Submittable)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%d files, organized=%t, full loop=%t, submittable=%t\n",
			len(snap.Records), snap.AllOrganized, snap.HasFullLoop, snap.Submittable)
	}
}
