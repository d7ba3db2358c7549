package plugincore_test

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andrei-cloud/plugcore/pkg/plugincore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var nameGen = rapid.StringMatching(`[a-zA-Z_][a-zA-Z0-9_]{0,23}`)

func TestRegistryDistinctNamesResolveDistinctly(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		r := plugincore.NewRegistry[Cmd](nil)
		n1 := nameGen.Draw(t, "n1")
		n2 := nameGen.Filter(func(s string) bool { return s != n1 }).Draw(t, "n2")

		require.NoError(t, r.Register(n1, ret(1)))
		require.NoError(t, r.Register(n2, ret(2)))

		f1, ok1 := r.Get(n1)
		f2, ok2 := r.Get(n2)
		require.True(t, ok1)
		require.True(t, ok2)
		assert.NotEqual(t, f1(), f2())
		assert.Equal(t, 2, r.Count())
	})
}

func TestRegistryTrimmingIsIdempotent(t *testing.T) {
	t.Parallel()

	pad := rapid.StringMatching(`[ \t]{0,3}`)
	rapid.Check(t, func(t *rapid.T) {
		r := plugincore.NewRegistry[Cmd](nil)
		name := nameGen.Draw(t, "name")
		raw := pad.Draw(t, "lead") + name + pad.Draw(t, "trail")

		require.NoError(t, r.Register(raw, ret(7)))
		assert.True(t, r.Exists(name))
		assert.True(t, r.Exists(raw))
		assert.True(t, r.Exists("  "+name+"  "))
		assert.Equal(t, []string{name}, r.Names())
	})
}

func TestRegistryDuplicateFirstWins(t *testing.T) {
	t.Parallel()

	c := plugincore.NewChannel()
	lc := capture(c)
	r := plugincore.NewRegistry[Cmd](c)

	require.NoError(t, r.Register("help", ret(1)))
	err := r.Register("  help ", ret(2))
	require.ErrorIs(t, err, plugincore.ErrDuplicate)

	impl, ok := r.Get("help")
	require.True(t, ok)
	assert.Equal(t, int32(1), impl())
	assert.Equal(t, 1, lc.count(plugincore.LevelWarn))
	assert.True(t, lc.contains(plugincore.LevelWarn, "Duplicate"))
	assert.True(t, lc.contains(plugincore.LevelWarn, "first registration wins"))
	assert.True(t, lc.contains(plugincore.LevelWarn, "help"))
}

func TestRegistryRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	r := plugincore.NewRegistry[Cmd](nil)

	testCases := []struct {
		name    string
		cmdName string
		impl    Cmd
		wantErr error
	}{
		{name: "empty name", cmdName: "", impl: ret(1), wantErr: plugincore.ErrEmptyName},
		{name: "whitespace only", cmdName: " \t ", impl: ret(1), wantErr: plugincore.ErrEmptyName},
		{name: "nil impl", cmdName: "nil_impl", impl: nil, wantErr: plugincore.ErrNilCommand},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, r.Register(tc.cmdName, tc.impl), tc.wantErr)
		})
	}
	assert.Zero(t, r.Count())
}

func TestRegistryInternalWhitespaceWarns(t *testing.T) {
	t.Parallel()

	c := plugincore.NewChannel()
	lc := capture(c)
	r := plugincore.NewRegistry[Cmd](c)

	require.NoError(t, r.Register("  trimmed_cmd  ", ret(777)))
	assert.Zero(t, lc.count(plugincore.LevelWarn), "surrounding whitespace is trimmed silently")

	require.NoError(t, r.Register("a b", ret(888)))
	assert.True(t, lc.contains(plugincore.LevelWarn, "internal whitespace"))

	impl, ok := r.Get("a b")
	require.True(t, ok)
	assert.Equal(t, int32(888), impl())
}

func TestRegistryLookupMisses(t *testing.T) {
	t.Parallel()

	r := plugincore.NewRegistry[Cmd](nil)
	require.NoError(t, r.Register("Example", ret(1)))

	assert.False(t, r.Exists(""))
	assert.False(t, r.Exists("example"), "lookups are case-sensitive")
	_, ok := r.Get("missing")
	assert.False(t, ok)
}

func TestRegistryForEachSortedAndStoppable(t *testing.T) {
	t.Parallel()

	r := plugincore.NewRegistry[Cmd](nil)
	for _, n := range []string{"zeta", "alpha", "mid", "Beta", "alpha2"} {
		require.NoError(t, r.Register(n, ret(1)))
	}

	var visited []string
	r.ForEach(func(name string, _ Cmd) bool {
		visited = append(visited, name)
		return true
	})
	assert.Len(t, visited, r.Count())
	assert.True(t, sort.StringsAreSorted(visited))
	assert.Equal(t, []string{"Beta", "alpha", "alpha2", "mid", "zeta"}, visited)

	visited = nil
	r.ForEach(func(name string, _ Cmd) bool {
		visited = append(visited, name)
		return len(visited) < 2
	})
	assert.Equal(t, []string{"Beta", "alpha"}, visited)

	assert.NotPanics(t, func() { r.ForEach(nil) })
}

func TestRegistryConcurrentRegisterAndForEach(t *testing.T) {
	t.Parallel()

	const n = 100
	r := plugincore.NewRegistry[Cmd](nil)

	var (
		wg         sync.WaitGroup
		done       atomic.Bool
		iterations atomic.Int32
		registered atomic.Int32
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			if r.Register(fmt.Sprintf("concurrent_cmd_%d", i), ret(int32(i))) == nil {
				registered.Add(1)
			}
		}
		done.Store(true)
	}()
	go func() {
		defer wg.Done()
		for !done.Load() || iterations.Load() < 3 {
			visits := 0
			r.ForEach(func(string, Cmd) bool {
				visits++
				return true
			})
			_ = r.Count()
			iterations.Add(1)
			time.Sleep(time.Millisecond)
		}
	}()

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(10 * time.Second):
		t.Fatal("registry deadlocked")
	}

	assert.Equal(t, int32(n), registered.Load())
	assert.GreaterOrEqual(t, iterations.Load(), int32(3))
	assert.Equal(t, n, r.Count())
	for i := 0; i < n; i++ {
		assert.True(t, r.Exists(fmt.Sprintf("concurrent_cmd_%d", i)))
	}
}
