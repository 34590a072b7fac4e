package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/teranos/marquee/display"
	"github.com/teranos/marquee/engine/strokes"
	"github.com/teranos/marquee/errors"
)

// TokenCmd encodes and decodes draw tokens
var TokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Encode and decode draw tokens",
	Long: `A draw token carries the strokes of a draw display in its URL:
/draw/<token>. The token is compressed JSON, base64url encoded without padding.

Examples:
  echo '[{"c":"ff0000","w":4,"p":[{"x":100,"y":100},{"x":900,"y":900}]}]' | marquee token encode
  marquee token decode <token>`,
}

var tokenEncodeCmd = &cobra.Command{
	Use:   "encode [strokes-json]",
	Short: "Encode strokes JSON (argument or stdin) into a token",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTokenEncode,
}

var tokenDecodeCmd = &cobra.Command{
	Use:   "decode <token>",
	Short: "Decode a token into strokes JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenDecode,
}

func init() {
	TokenCmd.AddCommand(tokenEncodeCmd)
	TokenCmd.AddCommand(tokenDecodeCmd)
}

func runTokenEncode(cmd *cobra.Command, args []string) error {
	var data []byte
	if len(args) == 1 {
		data = []byte(args[0])
	} else {
		var err error
		data, err = io.ReadAll(io.LimitReader(cmd.InOrStdin(), strokes.MaxDecodedSize+1))
		if err != nil {
			return errors.Wrap(err, "failed to read strokes")
		}
	}

	var list []strokes.Stroke
	if err := json.Unmarshal(data, &list); err != nil {
		return errors.WithHint(errors.Wrap(err, "invalid strokes JSON"),
			`expected [{"c":"ff0000","w":4,"p":[{"x":0,"y":0}]}]`)
	}

	token, err := strokes.Encode(list)
	if err != nil {
		return err
	}
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd, map[string]interface{}{"token": token, "path": "/draw/" + token})
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func runTokenDecode(cmd *cobra.Command, args []string) error {
	token := strings.TrimPrefix(strings.TrimSpace(args[0]), "/draw/")
	list, err := strokes.Decode(token)
	if err != nil {
		return err
	}
	return display.OutputJSON(cmd, list)
}
