package main

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/bastiangx/hposerve/internal/utils"
	"github.com/bastiangx/hposerve/pkg/config"
	"github.com/spf13/cobra"
)

func init() {
	configCmd.AddCommand(configPathCmd, configResetCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or reset the config file",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file in use and where paths resolve from",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, used, err := config.LoadConfigWithPriority(configPath)
		if err != nil {
			return err
		}
		resolver, err := utils.NewPathResolver("hposerve")
		if err != nil {
			return err
		}
		active := config.GetActiveConfigPath(used)
		runtimeInfo := resolver.GetRuntimeInfo()

		out := cmd.OutOrStdout()
		if !humanOutput {
			return outputJSON(out, map[string]any{
				"config":  active,
				"runtime": runtimeInfo,
			})
		}
		fmt.Fprintln(out, active)
		keys := make([]string, 0, len(runtimeInfo))
		for k := range runtimeInfo {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "  %-16s %s\n", k, runtimeInfo[k])
		}
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config as TOML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := config.LoadConfigWithPriority(configPath)
		if err != nil {
			return err
		}
		return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Overwrite the config file with defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.RebuildConfigFile(configPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote default config to %s\n", path)
		return nil
	},
}
