package display

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/marquee/errors"
)

// ShouldOutputJSON determines if a command should output JSON based on its
// own --json flag or the global one
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd == nil {
		return false
	}

	if f := cmd.Flags().Lookup("json"); f != nil && f.Changed {
		jsonFlag, _ := cmd.Flags().GetBool("json")
		return jsonFlag
	}

	globalFlag, _ := cmd.Root().PersistentFlags().GetBool("json")
	return globalFlag
}

// OutputJSON marshals and prints JSON using display.MarshalJSON
func OutputJSON(cmd *cobra.Command, v interface{}) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal JSON")
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
