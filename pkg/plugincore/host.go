package plugincore

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/andrei-cloud/plugcore/pkg/plugincore"

// Host is one independent plugin runtime, parameterized by the command
// signature F and identified by a namespace. Hosts in the same process share
// no state.
type Host[F any] struct {
	*Channel
	*Registry[F]
	*Guard
	*Loader[F]

	namespace string
	metrics   *Metrics
}

type options struct {
	symbol  string
	exts    []string
	opener  Opener
	diag    *Channel
	metrics *Metrics
	tp      trace.TracerProvider
}

// Option configures a Host.
type Option func(*options)

// WithSymbol sets the exported manifest accessor name looked up in plugins.
func WithSymbol(symbol string) Option {
	return func(o *options) { o.symbol = symbol }
}

// WithOpener sets how plugin files are opened. The default is Native.
func WithOpener(opener Opener) Option {
	return func(o *options) { o.opener = opener }
}

// WithExtensions sets the file extensions LoadDir and Watch treat as plugins.
func WithExtensions(exts ...string) Option {
	return func(o *options) { o.exts = exts }
}

// WithChannel shares an existing diagnostics channel, typically one that has
// been buffering since before the host was created.
func WithChannel(c *Channel) Option {
	return func(o *options) { o.diag = c }
}

// WithMetrics records load and invocation metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracerProvider sets the provider for load spans. The default is the
// global otel provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tp = tp }
}

// New creates a Host for namespace.
func New[F any](namespace string, opts ...Option) *Host[F] {
	o := options{
		symbol: DefaultSymbol,
		exts:   []string{".so", ".wasm"},
		opener: Native,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.diag == nil {
		o.diag = NewChannel()
	}
	if o.tp == nil {
		o.tp = otel.GetTracerProvider()
	}

	guard := &Guard{}
	registry := NewRegistry[F](o.diag)

	return &Host[F]{
		Channel:  o.diag,
		Registry: registry,
		Guard:    guard,
		Loader: &Loader[F]{
			namespace: namespace,
			symbol:    o.symbol,
			exts:      o.exts,
			opener:    o.opener,
			guard:     guard,
			registry:  registry,
			diag:      o.diag,
			metrics:   o.metrics,
			tracer:    o.tp.Tracer(instrumentationName),
		},
		namespace: namespace,
		metrics:   o.metrics,
	}
}

// Namespace returns the host's namespace.
func (h *Host[F]) Namespace() string {
	return h.namespace
}

// Init registers the host's built-in commands. Registration failures are
// collected into the returned error; the remaining built-ins still register.
func (h *Host[F]) Init(builtins ...CommandDesc[F]) error {
	var errs []error
	for _, b := range builtins {
		if err := h.Register(b.Name, b.Impl); err != nil {
			errs = append(errs, fmt.Errorf("builtin %q: %w", b.Name, err))
		}
	}
	h.Logf(LevelInfo, "Plugin runtime %q initialized with %d command(s)", h.namespace, h.Count())

	return errors.Join(errs...)
}
