package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/teranos/marquee/config"
	"github.com/teranos/marquee/display"
	"github.com/teranos/marquee/errors"
)

// ConfigCmd manages marquee configuration
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and validate configuration",
	Long: `Display and validate marquee configuration.

Configuration sources (later overrides earlier):
1. Built-in defaults
2. System config (/etc/marquee/marquee.toml)
3. User config (~/.marquee/marquee.toml)
4. Project config (nearest marquee.toml above the working directory)
5. Environment variables (MARQUEE_* prefix, e.g. MARQUEE_SERVER_ADDR)

--config <file> replaces files 2-4 with a single file.

Examples:
  marquee config show                  # Show current configuration
  marquee config show --format json    # Show configuration as JSON
  marquee config get server.addr       # Get one value
  marquee config validate              # Validate current configuration
  marquee config where                 # Show where each value came from`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a configuration value using dot notation (e.g. server.addr, session.burst)",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runConfigValidate,
}

var configWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration values come from",
	RunE:  runConfigWhere,
}

var configFormat string

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	configWhereCmd.Flags().BoolP("json", "j", false, "Output as JSON")

	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configGetCmd)
	ConfigCmd.AddCommand(configValidateCmd)
	ConfigCmd.AddCommand(configWhereCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	format := configFormat
	if display.ShouldOutputJSON(cmd) {
		format = "json"
	}
	data, err := config.Marshal(cfg, format)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	v, err := config.GetViper()
	if err != nil {
		return err
	}
	if !v.IsSet(key) {
		return errors.WithHint(
			errors.Newf("configuration key %q not found", key),
			"list keys with 'marquee config where'")
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd, map[string]interface{}{key: v.Get(key)})
	}
	fmt.Fprintln(cmd.OutOrStdout(), v.Get(key))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration is valid")
	return nil
}

func runConfigWhere(cmd *cobra.Command, args []string) error {
	intro, err := config.Introspect()
	if err != nil {
		return errors.Wrap(err, "failed to get config introspection")
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd, intro)
	}

	out := cmd.OutOrStdout()
	files := config.Files()
	if len(files) == 0 {
		fmt.Fprintln(out, "No config files found; using defaults and environment")
	} else {
		fmt.Fprintln(out, "Config files (later overrides earlier):")
		for _, f := range files {
			fmt.Fprintln(out, "  "+f)
		}
	}
	fmt.Fprintln(out)

	data := pterm.TableData{{"Key", "Value", "Source", "From"}}
	for _, s := range intro.Settings {
		data = append(data, []string{s.Key, fmt.Sprint(s.Value), string(s.Source), s.SourcePath})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, table)
	return nil
}
