package commands

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/teranos/marquee/config"
	"github.com/teranos/marquee/display"
	"github.com/teranos/marquee/errors"
	"github.com/teranos/marquee/logger"
	"github.com/teranos/marquee/param"
	"github.com/teranos/marquee/request"
	"github.com/teranos/marquee/surface"
)

// ParseCmd shows how a display URL is parsed
var ParseCmd = &cobra.Command{
	Use:   "parse <url>",
	Short: "Show how a display URL is parsed",
	Long: `Parse a display URL into its product, content and parameters.

With --resolve the request is also shown on an offscreen display, which adds
the effect that would run, whether it fell back to "default", and the merged
configuration (configured defaults < effect defaults < request).

Examples:
  marquee parse '/text/Hello%20World?t=neon&sz=12'
  marquee parse 'http://screen.local/qr/https%3A%2F%2Fexample.com?t=card' --resolve`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

var (
	parseResolve bool
	parseHTML    bool
)

func init() {
	ParseCmd.Flags().BoolVar(&parseResolve, "resolve", false, "Resolve the effect and merged config")
	ParseCmd.Flags().BoolVar(&parseHTML, "html", false, "Include the rendered markup (implies --resolve)")
}

// parseOutput is what parse prints
type parseOutput struct {
	Parsed request.Parsed  `json:"parsed"`
	Config param.Map       `json:"config"`
	Result *display.Result `json:"result,omitempty"`
	HTML   string          `json:"html,omitempty"`
}

func runParse(cmd *cobra.Command, args []string) error {
	parsed, cfg, err := request.ParseURL(args[0])
	if err != nil {
		return errors.WithHint(err, "percent-encode '%' as %25 in paths and query values")
	}
	out := parseOutput{Parsed: parsed, Config: cfg}

	if parseResolve || parseHTML {
		appCfg, err := config.Load()
		if err != nil {
			return errors.Wrap(err, "failed to load config")
		}
		products, err := display.New(display.Options{Defaults: appCfg.ProductDefaults()}, logger.ComponentLogger("display"))
		if err != nil {
			return err
		}
		defer products.Close()

		root := surface.Div()
		res, err := products.Show(context.Background(), parsed, cfg, root, display.Engines{})
		if err != nil {
			return err
		}
		out.Result = &res

		if parseHTML {
			html, err := root.HTML()
			if err != nil {
				return err
			}
			out.HTML = html
		}
	}

	return display.OutputJSON(cmd, out)
}
