package plugincore_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/andrei-cloud/plugcore/pkg/plugincore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchLoadsNewPlugins(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	existing := filepath.Join(dir, "existing.so")
	added := filepath.Join(dir, "added.so")
	require.NoError(t, os.WriteFile(existing, nil, 0o600))

	o := newFakeOpener()
	o.addManifest(existing, plugincore.NewManifest("existing", 1, cmds("old")...))
	o.addManifest(added, plugincore.NewManifest("added", 1, cmds("new")...))
	h, lc := newHost(o)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Watch(ctx, dir) }()

	require.Eventually(t, func() bool {
		return h.Exists("old") && lc.contains(plugincore.LevelInfo, "Watching")
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(added, []byte("x"), 0o600))
	require.Eventually(t, func() bool { return h.Exists("new") }, 5*time.Second, 10*time.Millisecond)

	// a rewrite of a loaded plugin is not loaded twice.
	require.NoError(t, os.WriteFile(added, []byte("xy"), 0o600))
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, h.Libraries(), 2)
	assert.Zero(t, lc.count(plugincore.LevelWarn))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchBoundsRetriesOfFailingPlugin(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.so")
	require.NoError(t, os.WriteFile(bad, []byte("v0"), 0o600))

	m := plugincore.NewManifest("bad", 1, cmds("bad_cmd")...)
	m.ABIVersion = plugincore.ABIVersion + 1
	o := newFakeOpener()
	o.addManifest(bad, m)
	h, lc := newHost(o)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- h.Watch(ctx, dir) }()

	require.Eventually(t, func() bool {
		return lc.contains(plugincore.LevelInfo, "Watching")
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, o.opensOf(bad))

	for i := 1; i <= 10; i++ {
		require.NoError(t, os.WriteFile(bad, []byte(strings.Repeat("x", i+2)), 0o600))
		time.Sleep(20 * time.Millisecond)
	}
	time.Sleep(200 * time.Millisecond)

	opens := o.opensOf(bad)
	assert.GreaterOrEqual(t, opens, 1)
	assert.LessOrEqual(t, opens, 3, "a failing plugin is retried a bounded number of times")
	assert.Equal(t, opens, lc.count(plugincore.LevelError))
	assert.False(t, h.Exists("bad_cmd"))
	assert.Empty(t, h.Libraries())

	cancel()
	require.NoError(t, <-done)
}

func TestWatchRetriesFixedPlugin(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := filepath.Join(dir, "fixed.so")
	require.NoError(t, os.WriteFile(p, []byte("broken"), 0o600))

	broken := plugincore.NewManifest("fixed", 1, cmds("fixed_cmd")...)
	broken.ABIVersion = plugincore.ABIVersion + 1
	o := newFakeOpener()
	o.addManifest(p, broken)
	h, lc := newHost(o)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- h.Watch(ctx, dir) }()

	require.Eventually(t, func() bool {
		return lc.contains(plugincore.LevelInfo, "Watching")
	}, 5*time.Second, 10*time.Millisecond)
	assert.False(t, h.Exists("fixed_cmd"))

	o.addManifest(p, plugincore.NewManifest("fixed", 2, cmds("fixed_cmd")...))
	require.NoError(t, os.WriteFile(p, []byte("rebuilt plugin"), 0o600))
	require.Eventually(t, func() bool { return h.Exists("fixed_cmd") }, 5*time.Second, 10*time.Millisecond)
	assert.Len(t, h.Libraries(), 1)

	cancel()
	require.NoError(t, <-done)
}

func TestWatchMissingDir(t *testing.T) {
	t.Parallel()

	h, _ := newHost(newFakeOpener())
	err := h.Watch(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
