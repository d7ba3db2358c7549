package plugincore_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/andrei-cloud/plugcore/pkg/plugincore"
)

type Cmd = plugincore.Command

// ret returns a command yielding v.
func ret(v int32) Cmd {
	return func() int32 { return v }
}

// logCapture records every diagnostic delivered to it.
type logCapture struct {
	mu      sync.Mutex
	records []plugincore.Record
}

func capture(c *plugincore.Channel) *logCapture {
	lc := &logCapture{}
	c.SetLogger(lc.log)

	return lc
}

func (lc *logCapture) log(level plugincore.Level, msg string) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.records = append(lc.records, plugincore.Record{Level: level, Message: msg})
}

func (lc *logCapture) contains(level plugincore.Level, substr string) bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	for _, r := range lc.records {
		if r.Level == level && strings.Contains(r.Message, substr) {
			return true
		}
	}

	return false
}

func (lc *logCapture) count(level plugincore.Level) int {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	n := 0
	for _, r := range lc.records {
		if r.Level == level {
			n++
		}
	}

	return n
}

func (lc *logCapture) reset() {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.records = nil
}

// fakeLibrary resolves symbols from a map.
type fakeLibrary map[string]any

func (f fakeLibrary) Lookup(symbol string) (any, error) {
	v, ok := f[symbol]
	if !ok {
		return nil, errors.New("symbol not found")
	}

	return v, nil
}

// fakeOpener serves in-memory libraries by path.
type fakeOpener struct {
	mu     sync.Mutex
	libs   map[string]plugincore.Library
	opened []string
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{libs: make(map[string]plugincore.Library)}
}

func (o *fakeOpener) add(path string, lib plugincore.Library) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.libs[path] = lib
}

// addManifest serves m through the default accessor symbol.
func (o *fakeOpener) addManifest(path string, m *plugincore.Manifest[Cmd]) {
	o.add(path, fakeLibrary{
		plugincore.DefaultSymbol: func() *plugincore.Manifest[Cmd] { return m },
	})
}

func (o *fakeOpener) Open(_ context.Context, path string) (plugincore.Library, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = append(o.opened, path)
	lib, ok := o.libs[path]
	if !ok {
		return nil, fmt.Errorf("%s: cannot open shared object file: No such file or directory", path)
	}

	return lib, nil
}

func (o *fakeOpener) openCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return len(o.opened)
}

func (o *fakeOpener) opensOf(path string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, p := range o.opened {
		if p == path {
			n++
		}
	}

	return n
}

func newHost(opener plugincore.Opener, opts ...plugincore.Option) (*plugincore.Host[Cmd], *logCapture) {
	h := plugincore.New[Cmd]("test", append([]plugincore.Option{plugincore.WithOpener(opener)}, opts...)...)

	return h, capture(h.Channel)
}

func cmds(names ...string) []plugincore.CommandDesc[Cmd] {
	out := make([]plugincore.CommandDesc[Cmd], 0, len(names))
	for i, n := range names {
		out = append(out, plugincore.CommandDesc[Cmd]{Name: n, Impl: ret(int32(i + 1))})
	}

	return out
}
