package watch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/andrei-cloud/plugcore/internal/config"
	"github.com/andrei-cloud/plugcore/internal/wasmtest"
	"github.com/andrei-cloud/plugcore/pkg/wasmguest"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func TestWatchLoadsUntilCancelled(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	dir := filepath.Join(t.TempDir(), "plugins")
	t.Setenv("PLUGCORE_PLUGIN_PATH", dir)
	require.NoError(t, config.Initialize(""))

	logs := &syncBuffer{}
	prev := log.Logger
	log.Logger = zerolog.New(logs)
	t.Cleanup(func() { log.Logger = prev })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out syncBuffer
	cmd := NewWatchCommand()
	cmd.SetOut(&out)
	cmd.SetArgs(nil)

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "Watching "+dir)
	}, 5*time.Second, 10*time.Millisecond)

	m := wasmguest.NewManifest("late", 1, wasmguest.Entry{Name: "late", Export: "cmd_late"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "late.wasm"),
		wasmtest.Plugin("PluginInfo", m, wasmtest.Const("cmd_late", 1)), 0o600))

	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "Loaded 1 command(s)")
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}

	assert.Contains(t, out.String(), "1 plugin(s), 4 command(s)")
}
