// Package host assembles the configured plugin runtime used by the CLI.
package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/andrei-cloud/plugcore/internal/builtins"
	"github.com/andrei-cloud/plugcore/internal/config"
	"github.com/andrei-cloud/plugcore/pkg/plugincore"
	"github.com/andrei-cloud/plugcore/pkg/plugincore/logsink"
	"github.com/andrei-cloud/plugcore/pkg/plugincore/wasmlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

// Runtime is a canonical-signature host together with the wasm runtime and
// metrics registry backing it.
type Runtime struct {
	*plugincore.Host[plugincore.Command]

	Metrics  *plugincore.Metrics
	Registry *prometheus.Registry
	wasm     *wasmlib.Opener
}

// Options configures New.
type Options struct {
	Namespace   string
	Symbol      string
	TrustedRoot string
	Logger      zerolog.Logger
	// Out receives the output of the built-in commands.
	Out io.Writer
	// Native opens non-wasm plugins. Nil selects plugincore.Native.
	Native plugincore.Opener
}

// FromConfig derives Options from the loaded configuration.
func FromConfig(cfg *config.Config, logger zerolog.Logger, out io.Writer) Options {
	return Options{
		Namespace:   cfg.Namespace,
		Symbol:      cfg.Plugin.Symbol,
		TrustedRoot: cfg.Plugin.TrustedRoot,
		Logger:      logger,
		Out:         out,
	}
}

// New builds and initializes a runtime. Diagnostics raised while the runtime
// is assembled are buffered and flushed into the logger once it is attached.
func New(ctx context.Context, opts Options) (*Runtime, error) {
	diag := plugincore.NewChannel()

	wasm, err := wasmlib.NewOpener(ctx, diag)
	if err != nil {
		return nil, fmt.Errorf("failed to create wasm runtime: %w", err)
	}

	native := opts.Native
	if native == nil {
		native = plugincore.Native
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := plugincore.NewMetrics(reg)

	hostOpts := []plugincore.Option{
		plugincore.WithChannel(diag),
		plugincore.WithMetrics(metrics),
		plugincore.WithOpener(plugincore.ExtOpener{
			ByExt:   map[string]plugincore.Opener{".wasm": wasm},
			Default: native,
		}),
	}
	if opts.Symbol != "" {
		hostOpts = append(hostOpts, plugincore.WithSymbol(opts.Symbol))
	}

	h := plugincore.New[plugincore.Command](opts.Namespace, hostOpts...)
	if opts.TrustedRoot != "" {
		h.SetPolicy(plugincore.RootPolicy(opts.TrustedRoot))
	}

	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	if err := h.Init(builtins.Commands(h, out)...); err != nil {
		_ = wasm.Close(ctx)

		return nil, fmt.Errorf("failed to register built-in commands: %w", err)
	}

	sink := logsink.Zerolog(opts.Logger, opts.Namespace)
	diag.Attach(sink)

	return &Runtime{
		Host:     h,
		Metrics:  metrics,
		Registry: reg,
		wasm:     wasm,
	}, nil
}

// LoadPluginDir loads every plugin in dir. A missing directory loads nothing.
func (r *Runtime) LoadPluginDir(ctx context.Context, dir string) (int, error) {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}

	return r.LoadDir(ctx, dir)
}

// Close releases the wasm runtime. Wasm commands must not be invoked afterwards.
func (r *Runtime) Close(ctx context.Context) error {
	return r.wasm.Close(ctx)
}
