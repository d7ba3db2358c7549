// Package wasmlib opens WebAssembly plugins for a plugincore host using wazero.
//
// A wasm plugin exports its linear memory, a manifest accessor of type
// () -> i32 returning the guest address of the manifest, and one () -> i32
// function per command. All manifest fields are 32-bit little endian:
//
//	+0  plugin name address
//	+4  plugin name length
//	+8  version
//	+12 command count
//	+16 command table address
//	+20 ABI version
//	+24 struct size
//
// Each command table entry is 16 bytes: name address, name length, export
// name address, export name length. An entry whose export is empty or missing
// from the module yields a nil command.
package wasmlib

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/andrei-cloud/plugcore/pkg/plugincore"
	"github.com/andrei-cloud/plugcore/pkg/wasmguest"
	"github.com/google/uuid"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// ManifestSize is the size of the wasm manifest layout in guest memory.
const ManifestSize uintptr = wasmguest.ManifestSize

// CommandEntrySize is the size of one command table entry in guest memory.
const CommandEntrySize = wasmguest.EntrySize

// Opener compiles and instantiates wasm plugins in a single wazero runtime.
type Opener struct {
	//nolint:containedctx // the runtime and every module call share this context.
	ctx     context.Context
	runtime wazero.Runtime
	diag    *plugincore.Channel
}

// NewOpener creates the runtime along with the WASI and env host modules.
// Guest log messages go to diag.
func NewOpener(ctx context.Context, diag *plugincore.Channel) (*Opener, error) {
	if diag == nil {
		diag = plugincore.NewChannel()
	}

	rt := wazero.NewRuntime(ctx)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)

		return nil, fmt.Errorf("failed to instantiate wasi: %w", err)
	}

	o := &Opener{ctx: ctx, runtime: rt, diag: diag}
	if err := o.registerHostFunctions(ctx); err != nil {
		_ = rt.Close(ctx)

		return nil, err
	}

	return o, nil
}

// Open implements plugincore.Opener. The start function is not run; a WASI
// reactor's _initialize export is called once after instantiation.
func (o *Opener) Open(ctx context.Context, path string) (plugincore.Library, error) {
	wasmBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return o.OpenBytes(ctx, wasmBytes)
}

// OpenBytes instantiates an in-memory wasm module.
func (o *Opener) OpenBytes(ctx context.Context, wasmBytes []byte) (plugincore.Library, error) {
	compiled, err := o.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to compile plugin module: %w", err)
	}

	cfg := wazero.NewModuleConfig().
		WithName(uuid.NewString()).
		WithStartFunctions()

	mod, err := o.runtime.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate plugin module: %w", err)
	}

	if initFn := mod.ExportedFunction("_initialize"); initFn != nil {
		if _, err := initFn.Call(ctx); err != nil {
			_ = mod.Close(ctx)

			return nil, fmt.Errorf("failed to initialize plugin module: %w", err)
		}
	}

	return &library{ctx: o.ctx, mod: mod, diag: o.diag}, nil
}

// Close releases the runtime and every module in it. Commands loaded through
// this opener must not be invoked afterwards.
func (o *Opener) Close(ctx context.Context) error {
	return o.runtime.Close(ctx)
}

// Trap is the panic value raised when a wasm command traps.
type Trap struct {
	Export string
	Err    error
}

func (t *Trap) Error() string {
	return fmt.Sprintf("wasm export %q trapped: %v", t.Export, t.Err)
}

func (t *Trap) Unwrap() error {
	return t.Err
}

// nullaryI32 reports whether fn has the () -> i32 signature.
func nullaryI32(fn api.Function) bool {
	def := fn.Definition()
	results := def.ResultTypes()

	return len(def.ParamTypes()) == 0 && len(results) == 1 && results[0] == api.ValueTypeI32
}

func le32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}
