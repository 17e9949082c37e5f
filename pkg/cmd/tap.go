package cmd

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yeisme/kitvault/pkg/kit"
)

var (
	tapWindow int
	tapReset  time.Duration

	tapCmd = &cobra.Command{
		Use:   "tap",
		Short: "tap tempo: press Enter on every beat, q to quit",
		Run: func(cmd *cobra.Command, args []string) {
			t := kit.NewTapper(tapWindow, tapReset)
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "press Enter on every beat, q then Enter to quit")

			sc := bufio.NewScanner(cmd.InOrStdin())
			for sc.Scan() {
				if strings.EqualFold(strings.TrimSpace(sc.Text()), "q") {
					break
				}

				if bpm := t.Tap(time.Now()); bpm > 0 {
					fmt.Fprintf(out, "%.1f BPM (%d taps)\n", bpm, t.Count())
				} else {
					fmt.Fprintln(out, "…")
				}
			}

			if bpm := t.BPM(); bpm > 0 {
				fmt.Fprintf(out, "tempo: %.0f BPM\n", bpm)
			}
		},
	}
)

func registerTapCommands() {
	tapCmd.Flags().IntVar(&tapWindow, "window", kit.DefaultTapWindow, "number of recent taps averaged")
	tapCmd.Flags().DurationVar(&tapReset, "reset", kit.DefaultTapReset, "gap after which counting restarts")
	rootCmd.AddCommand(tapCmd)
}
