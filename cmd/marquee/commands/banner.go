package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/teranos/marquee/config"
	"github.com/teranos/marquee/logger"
	"github.com/teranos/marquee/version"
)

// printStartupBanner prints the user-friendly startup message
func printStartupBanner(cmd *cobra.Command, cfg *config.Config, verbosity int, presetCount int) {
	info := version.Get()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, pterm.DefaultHeader.WithFullWidth().Sprint("marquee "+info.Version))

	source := "built-in defaults"
	if files := config.Files(); len(files) > 0 {
		source = files[len(files)-1]
	}

	list, err := pterm.DefaultBulletList.WithItems([]pterm.BulletListItem{
		{Level: 0, Text: "Listening: " + cfg.Server.Addr},
		{Level: 0, Text: "Config:    " + source},
		{Level: 0, Text: fmt.Sprintf("Presets:   %d", presetCount)},
		{Level: 0, Text: "Commit:    " + info.Short()},
		{Level: 0, Text: "Verbosity: " + logger.LevelName(verbosity)},
	}).Srender()
	if err == nil {
		fmt.Fprint(out, list)
	}

	fmt.Fprintln(out, pterm.Gray("Try http://localhost"+cfg.Server.Addr+"/text/Hello?t=neon"))
}
