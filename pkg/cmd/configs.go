package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"

	"github.com/yeisme/kitvault/pkg/configs"
	"github.com/yeisme/kitvault/pkg/rule"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}

	configPathCmd = &cobra.Command{
		Use:   "path",
		Short: "print the config file in use",
		Run: func(cmd *cobra.Command, args []string) {
			used := configs.GetViper().ConfigFileUsed()
			if used == "" {
				used = "(none: defaults + KITVAULT_* env)"
			}

			fmt.Fprintln(cmd.OutOrStdout(), used)
		},
	}

	configShowDefaults bool

	configShowCmd = &cobra.Command{
		Use:     "show [section]",
		Short:   "print the effective config as JSON",
		Aliases: []string{"debug"},
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *configs.GetConfig()
			if configShowDefaults {
				cfg = configs.Defaults()
			}

			if debug {
				configs.GetViper().DebugTo(cmd.ErrOrStderr())
			}

			section := ""
			if len(args) == 1 {
				section = args[0]
			}

			return writeSection(cmd.OutOrStdout(), cfg, section)
		},
	}

	configValidateCmd = &cobra.Command{
		Use:   "validate",
		Short: "validate the loaded config and list offending fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := rule.ValidateStruct(configs.GetConfig())
			if err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			}

			errs := rule.Errors(err)
			if errs == nil {
				return err
			}

			fields := make([]string, 0, len(errs))
			for f := range errs {
				fields = append(fields, f)
			}

			slices.Sort(fields)

			rows := make([][]string, 0, len(fields))
			for _, f := range fields {
				rows = append(rows, []string{f, errs[f]})
			}

			renderTable(cmd.OutOrStdout(), []string{"Field", "Problem"}, rows)

			return fmt.Errorf("%d invalid config field(s)", len(fields))
		},
	}
)

// writeSection 以缩进 JSON 输出整个配置或其中一个顶层段.
func writeSection(w io.Writer, cfg configs.AppConfig, section string) error {
	var v any = cfg

	if section != "" {
		var all map[string]any
		if err := mapstructure.Decode(cfg, &all); err != nil {
			return fmt.Errorf("flatten config: %w", err)
		}

		sub, ok := all[strings.ToLower(section)]
		if !ok {
			return fmt.Errorf("unknown config section %q", section)
		}

		v = sub
	}

	b, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	_, err = fmt.Fprintln(w, string(b))

	return err
}

func registerConfigsCommands() {
	configShowCmd.Flags().BoolVar(&configShowDefaults, "defaults", false, "print built-in defaults instead of the loaded config")

	configCmd.AddCommand(configPathCmd, configShowCmd, configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
