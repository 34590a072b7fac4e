package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/teranos/marquee/cmd/marquee/commands"
	"github.com/teranos/marquee/config"
	"github.com/teranos/marquee/errors"
	"github.com/teranos/marquee/logger"
)

var rootCmd = &cobra.Command{
	Use:   "marquee",
	Short: "marquee - digital signage display server",
	Long: `marquee - digital signage display server.

A request path and query string select a product (text, light, sound, time,
qr, camera, draw) and its parameters; marquee draws that product onto a
full-viewport page. Browsers open a live session so the display can be
re-pointed without reloading.

Available commands:
  serve    - Start the display server
  parse    - Show how a display URL is parsed
  effects  - List the effects of each product
  config   - Show and validate configuration
  token    - Encode and decode draw tokens
  version  - Show version information

Examples:
  marquee serve --addr :8080
  marquee parse '/text/Hello?t=neon&c=ff00ff' --resolve
  marquee effects text
  marquee config show --format yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.InitializeWithLevel(jsonLogs, logger.VerbosityToLevel(verbosity)); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}

		if path, _ := cmd.Flags().GetString("config"); path != "" {
			config.UseFile(path)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("json", false, "Output results as JSON")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON")
	rootCmd.PersistentFlags().String("config", "", "Read configuration from this file instead of the marquee.toml cascade")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.ParseCmd)
	rootCmd.AddCommand(commands.EffectsCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.TokenCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintln(os.Stderr, "Hint:", hint)
		}
		os.Exit(1)
	}
}
