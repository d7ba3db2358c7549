package wasmlib

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/andrei-cloud/plugcore/pkg/plugincore"
	"github.com/tetratelabs/wazero/api"
)

// library is one instantiated wasm plugin. Calls into the module are
// serialized since a module instance is not safe for concurrent use.
type library struct {
	//nolint:containedctx // see Opener.
	ctx  context.Context
	mod  api.Module
	diag *plugincore.Channel
	mu   sync.Mutex
}

// ManifestSize implements plugincore.ManifestSizer.
func (l *library) ManifestSize() uintptr {
	return ManifestSize
}

// Lookup returns the manifest accessor exported as symbol.
func (l *library) Lookup(symbol string) (any, error) {
	fn := l.mod.ExportedFunction(symbol)
	if fn == nil {
		return nil, errors.New("symbol not found")
	}
	if !nullaryI32(fn) {
		return nil, fmt.Errorf("export %s is not () -> i32", symbol)
	}

	return func() *plugincore.Manifest[plugincore.Command] {
		return l.manifest(symbol, fn)
	}, nil
}

func (l *library) manifest(symbol string, fn api.Function) *plugincore.Manifest[plugincore.Command] {
	l.mu.Lock()
	res, err := fn.Call(l.ctx)
	l.mu.Unlock()
	if err != nil {
		l.diag.Logf(plugincore.LevelError, "Manifest accessor %s trapped: %v", symbol, err)

		return nil
	}

	addr := api.DecodeU32(res[0])
	if addr == 0 {
		return nil
	}

	mem := l.mod.Memory()
	if mem == nil {
		l.diag.Log(plugincore.LevelError, "Plugin module does not export memory")

		return nil
	}

	hdr, ok := mem.Read(addr, uint32(ManifestSize))
	if !ok {
		l.diag.Logf(plugincore.LevelError, "Manifest at %#x is out of memory bounds", addr)

		return nil
	}

	m := &plugincore.Manifest[plugincore.Command]{
		PluginName:   l.readString(le32(hdr, 0), le32(hdr, 4)),
		Version:      le32(hdr, 8),
		CommandCount: le32(hdr, 12),
		ABIVersion:   le32(hdr, 20),
		StructSize:   uintptr(le32(hdr, 24)),
	}

	// the command table is only read once the ABI fields describe a layout
	// this host understands.
	if plugincore.Validate(m, ManifestSize) != nil {
		return m
	}
	m.Commands = l.commands(le32(hdr, 16), m.CommandCount)

	return m
}

func (l *library) commands(tableAddr, count uint32) []plugincore.CommandDesc[plugincore.Command] {
	if tableAddr == 0 || count == 0 {
		return nil
	}

	mem := l.mod.Memory()
	size := uint64(count) * CommandEntrySize
	if uint64(tableAddr)+size > uint64(mem.Size()) {
		l.diag.Logf(plugincore.LevelError, "Command table at %#x with %d entries is out of memory bounds",
			tableAddr, count)

		return nil
	}

	table, ok := mem.Read(tableAddr, uint32(size))
	if !ok {
		return nil
	}

	cmds := make([]plugincore.CommandDesc[plugincore.Command], 0, count)
	for i := 0; i < int(count); i++ {
		off := i * CommandEntrySize
		export := l.readString(le32(table, off+8), le32(table, off+12))
		cmds = append(cmds, plugincore.CommandDesc[plugincore.Command]{
			Name: l.readString(le32(table, off), le32(table, off+4)),
			Impl: l.command(export),
		})
	}

	return cmds
}

// command binds a () -> i32 export. It returns nil for an empty or missing
// export so the loader skips the entry.
func (l *library) command(export string) plugincore.Command {
	if export == "" {
		return nil
	}

	fn := l.mod.ExportedFunction(export)
	if fn == nil {
		return nil
	}
	if !nullaryI32(fn) {
		l.diag.Logf(plugincore.LevelWarn, "Export %q has an unsupported signature", export)

		return nil
	}

	return func() int32 {
		l.mu.Lock()
		defer l.mu.Unlock()

		res, err := fn.Call(l.ctx)
		if err != nil {
			panic(&Trap{Export: export, Err: err})
		}

		return api.DecodeI32(res[0])
	}
}

// readString copies a guest string. A null address or an out of bounds
// range reads as empty.
func (l *library) readString(addr, n uint32) string {
	if addr == 0 || n == 0 {
		return ""
	}

	b, ok := l.mod.Memory().Read(addr, n)
	if !ok {
		return ""
	}

	return string(b)
}
