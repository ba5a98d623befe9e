package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/skillflow/internal/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config [key]",
	Short: "Show configuration",
	Long: `Show the effective configuration.

Without arguments, displays every key. With one argument, displays that key.

Configuration is read from ~/.config/skillflow/config.yaml, then the nearest
.skillflow.yaml, then SKILLFLOW_* environment variables.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfig,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default user config file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file locations",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		project := config.ProjectConfigPath()
		if project == "" {
			project = "(none)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "user:    %s\nproject: %s\n", config.UserConfigPath(), project)
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	settings := cfg.Settings()
	key, source := config.APIKey(cfg)
	settings["llm.api_key"] = fmt.Sprintf("%s (%s)", config.MaskAPIKey(key), source)

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		value, ok := settings[strings.ToLower(args[0])]
		if !ok {
			return fmt.Errorf("unknown configuration key: %s", args[0])
		}
		fmt.Fprintln(out, value)
		return nil
	}
	for _, k := range config.Keys() {
		fmt.Fprintf(out, "%s: %v\n", k, settings[k])
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.UserConfigPath()
	if fileExists(path) && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Save(config.Default(), path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s\n", color.GreenString("✓"), path)
	return nil
}
