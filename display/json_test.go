package display

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalJSON(t *testing.T) {
	v := map[string]any{"product": "text"}

	pretty, err := MarshalJSON(v)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"product\": \"text\"\n}", string(pretty))

	t.Setenv("MARQUEE_COMPACT_JSON", "1")
	compact, err := MarshalJSON(v)
	require.NoError(t, err)
	assert.Equal(t, `{"product":"text"}`, string(compact))
}

func TestShouldOutputJSON(t *testing.T) {
	root := &cobra.Command{Use: "marquee"}
	root.PersistentFlags().Bool("json", false, "")
	child := &cobra.Command{Use: "version"}
	child.Flags().Bool("json", false, "")
	root.AddCommand(child)

	assert.False(t, ShouldOutputJSON(nil))
	assert.False(t, ShouldOutputJSON(child))

	require.NoError(t, root.PersistentFlags().Set("json", "true"))
	assert.True(t, ShouldOutputJSON(child))

	require.NoError(t, child.Flags().Set("json", "false"))
	assert.False(t, ShouldOutputJSON(child), "local flag wins when set")
}

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	require.NoError(t, OutputJSON(cmd, []int{1}))
	assert.Equal(t, "[\n  1\n]\n", buf.String())
}
