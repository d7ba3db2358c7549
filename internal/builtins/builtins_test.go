package builtins

import (
	"bytes"
	"math"
	"testing"

	"github.com/andrei-cloud/plugcore/pkg/plugincore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommands(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	h := plugincore.New[plugincore.Command]("bu")
	require.NoError(t, h.Init(Commands(h, &out)...))
	require.Equal(t, 3, h.Count())

	testCases := []struct {
		name    string
		want    int32
		wantOut string
	}{
		{name: "help", want: 0, wantOut: "Available commands: help, status, version"},
		{name: "version", want: MajorVersion, wantOut: "plugcore v" + Version},
		{name: "status", want: 3, wantOut: "Status: OK, 3 commands registered"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out.Reset()
			var got int32
			require.Equal(t, plugincore.StatusOK, plugincore.Run(h, tc.name, &got))
			assert.Equal(t, tc.want, got)
			assert.Contains(t, out.String(), tc.wantOut)
		})
	}
}

func TestStatusTracksRegistry(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	h := plugincore.New[plugincore.Command]("bu")
	require.NoError(t, h.Init(Commands(h, &out)...))
	require.NoError(t, h.Register("extra", func() int32 { return 0 }))

	var got int32
	require.Equal(t, plugincore.StatusOK, plugincore.Run(h, "status", &got))
	assert.Equal(t, int32(4), got)
}

func TestClamp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int32(0), clamp(0))
	assert.Equal(t, int32(42), clamp(42))
	assert.Equal(t, int32(math.MaxInt32), clamp(math.MaxInt32))
	if math.MaxInt > math.MaxInt32 {
		big := math.MaxInt32
		big++
		assert.Equal(t, int32(math.MaxInt32), clamp(big))
	}
}
