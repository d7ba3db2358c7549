package wasmlib

import (
	"context"
	"fmt"

	"github.com/andrei-cloud/plugcore/pkg/plugincore"
	"github.com/tetratelabs/wazero/api"
)

// registerHostFunctions exports the env module guests use to report
// diagnostics into the host's channel.
func (o *Opener) registerHostFunctions(ctx context.Context) error {
	builder := o.runtime.NewHostModuleBuilder("env")

	builder.NewFunctionBuilder().
		WithFunc(o.guestLogger(plugincore.LevelInfo)).
		Export("log_info")

	builder.NewFunctionBuilder().
		WithFunc(o.guestLogger(plugincore.LevelWarn)).
		Export("log_warn")

	builder.NewFunctionBuilder().
		WithFunc(o.guestLogger(plugincore.LevelError)).
		Export("log_error")

	if _, err := builder.Instantiate(ctx); err != nil {
		return fmt.Errorf("failed to instantiate env module: %w", err)
	}

	return nil
}

func (o *Opener) guestLogger(level plugincore.Level) func(context.Context, api.Module, uint32, uint32) {
	return func(_ context.Context, m api.Module, ptr, size uint32) {
		data, err := readMemory(m, ptr, size)
		if err != nil {
			o.diag.Logf(plugincore.LevelError, "Failed to read guest log message: %v", err)

			return
		}
		o.diag.Log(level, string(data))
	}
}

// readMemory safely reads bytes from guest memory.
func readMemory(mod api.Module, ptr, size uint32) ([]byte, error) {
	if mod == nil {
		return nil, fmt.Errorf("nil module")
	}

	memory := mod.Memory()
	if memory == nil {
		return nil, fmt.Errorf("no memory exported")
	}

	data, ok := memory.Read(ptr, size)
	if !ok {
		return nil, fmt.Errorf("failed to read memory at %d[%d]", ptr, size)
	}

	return data, nil
}
