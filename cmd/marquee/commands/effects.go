package commands

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/teranos/marquee/display"
	"github.com/teranos/marquee/logger"
	"github.com/teranos/marquee/param"
	"github.com/teranos/marquee/request"
)

// EffectsCmd lists registered effects
var EffectsCmd = &cobra.Command{
	Use:   "effects [product]",
	Short: "List the effects of each product",
	Long: `List the registered effects with their descriptions and default parameters.

Select an effect with theme= (text, qr, draw, light), effect= (camera, sound)
or face= (time). Unknown effect ids fall back to "default".`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: productArgs(),
	RunE:      runEffects,
}

func init() {
	EffectsCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}

func productArgs() []string {
	out := make([]string, 0, len(request.Products))
	for _, p := range request.Products {
		out = append(out, string(p))
	}
	return out
}

func runEffects(cmd *cobra.Command, args []string) error {
	products, err := display.New(display.Options{}, logger.ComponentLogger("display"))
	if err != nil {
		return err
	}

	catalogue := products.Catalogue()
	selected := request.Products
	if len(args) == 1 {
		product := request.Product(strings.ToLower(args[0]))
		if _, err := products.Effects(product); err != nil {
			return err
		}
		selected = []request.Product{product}
	}

	if display.ShouldOutputJSON(cmd) {
		out := make(map[request.Product][]display.EffectInfo, len(selected))
		for _, p := range selected {
			out[p] = catalogue[p]
		}
		return display.OutputJSON(cmd, out)
	}

	data := pterm.TableData{{"Product", "Effect", "Selected by", "Description", "Defaults"}}
	for _, p := range selected {
		for _, e := range catalogue[p] {
			data = append(data, []string{string(p), e.ID, display.EffectKey(p) + "=" + e.ID, e.Description, formatDefaults(e.Defaults)})
		}
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), table)
	return nil
}

// formatDefaults renders a param map as sorted key=value pairs
func formatDefaults(m param.Map) string {
	keys := m.Keys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+m.String(k, fmt.Sprint(m[k])))
	}
	return strings.Join(parts, " ")
}
