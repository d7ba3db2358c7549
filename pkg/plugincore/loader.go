package plugincore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// LoadFailed is the count returned by Load on a load-level failure.
const LoadFailed = -1

// maxParallelLoads bounds the number of concurrent opens in LoadDir.
const maxParallelLoads = 4

// LibraryInfo describes a successfully loaded plugin library.
type LibraryInfo struct {
	ID         string
	Path       string
	PluginName string
	Version    uint32
	Registered int
	LoadedAt   time.Time
}

// Loader opens plugins, validates their manifests and feeds the commands into
// a Registry.
type Loader[F any] struct {
	namespace string
	symbol    string
	exts      []string
	opener    Opener
	guard     *Guard
	registry  *Registry[F]
	diag      *Channel
	metrics   *Metrics
	tracer    trace.Tracer

	mu      sync.Mutex
	handles []Library // retained for the life of the loader, never closed.
	libs    []LibraryInfo
}

// Load opens the plugin at path and registers its commands. It returns the
// number of commands registered, or LoadFailed and an error when the library
// could not be loaded at all. Individual commands that fail to register never
// fail the load.
func (l *Loader[F]) Load(ctx context.Context, path string) (int, error) {
	ctx, span := l.tracer.Start(ctx, "plugincore.Load", trace.WithAttributes(
		attribute.String("plugin.namespace", l.namespace),
		attribute.String("plugin.path", path),
	))
	defer span.End()

	n, err := l.load(ctx, path)
	l.metrics.observeLoad(l.namespace, n, err)
	if err != nil {
		l.diag.Log(LevelError, err.Error())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return LoadFailed, err
	}
	span.SetAttributes(attribute.Int("plugin.registered", n))

	return n, nil
}

func (l *Loader[F]) load(ctx context.Context, path string) (int, error) {
	if path == "" {
		return 0, ErrEmptyPath
	}
	if !l.guard.Allowed(path) {
		return 0, fmt.Errorf("%w: %s", ErrPathDenied, path)
	}

	lib, err := l.opener.Open(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrOpen, path, err)
	}

	manifest, err := l.resolve(lib, path)
	if err != nil {
		return 0, err
	}

	minSize := ManifestSize
	if s, ok := lib.(ManifestSizer); ok {
		minSize = s.ManifestSize()
	}
	if err := Validate(manifest, minSize); err != nil {
		return 0, fmt.Errorf("plugin %s: %w", path, err)
	}
	l.retain(lib)

	info := LibraryInfo{
		ID:         uuid.NewString(),
		Path:       path,
		PluginName: manifest.PluginName,
		Version:    manifest.Version,
		LoadedAt:   time.Now(),
	}

	if manifest.CommandCount == 0 || manifest.Commands == nil {
		l.diag.Logf(LevelInfo, "Plugin %s has no commands", path)
		l.record(info)

		return 0, nil
	}

	registered := 0
	for _, cmd := range manifest.entries() {
		if cmd.Name == "" || isNil(cmd.Impl) {
			continue
		}
		if err := l.registry.Register(cmd.Name, cmd.Impl); err == nil {
			registered++
		}
	}

	info.Registered = registered
	l.record(info)
	l.diag.Logf(LevelInfo, "Loaded %d command(s) from %s (%s v%d)",
		registered, path, manifest.PluginName, manifest.Version)

	return registered, nil
}

// resolve looks up the manifest accessor and calls it.
func (l *Loader[F]) resolve(lib Library, path string) (*Manifest[F], error) {
	sym, err := lib.Lookup(l.symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %s does not export %s: %v", ErrSymbol, path, l.symbol, err)
	}

	var accessor func() *Manifest[F]
	switch v := sym.(type) {
	case func() *Manifest[F]:
		accessor = v
	case *func() *Manifest[F]:
		if v != nil {
			accessor = *v
		}
	case *Manifest[F]:
		accessor = func() *Manifest[F] { return v }
	default:
		return nil, fmt.Errorf("%w: %s exports %s with unexpected type %T", ErrSymbol, path, l.symbol, sym)
	}
	if accessor == nil {
		return nil, fmt.Errorf("%w: %s resolved %s to nil", ErrSymbol, path, l.symbol)
	}

	manifest, err := callAccessor(accessor)
	if err != nil {
		return nil, fmt.Errorf("%w: %s manifest accessor %s panicked: %v", ErrSymbol, path, l.symbol, err)
	}
	if manifest == nil {
		return nil, fmt.Errorf("%w: %s", ErrNilManifest, path)
	}

	return manifest, nil
}

// callAccessor reports a panic in the plugin's accessor as an error.
func callAccessor[F any](accessor func() *Manifest[F]) (m *Manifest[F], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(faultMessage(r))
		}
	}()

	return accessor(), nil
}

// retain keeps a validated library referenced for the life of the loader.
func (l *Loader[F]) retain(lib Library) {
	l.mu.Lock()
	l.handles = append(l.handles, lib)
	l.mu.Unlock()
}

func (l *Loader[F]) record(info LibraryInfo) {
	l.mu.Lock()
	l.libs = append(l.libs, info)
	l.mu.Unlock()
}

// Libraries returns the libraries loaded so far, in load order.
func (l *Loader[F]) Libraries() []LibraryInfo {
	l.mu.Lock()
	defer l.mu.Unlock()

	return slices.Clone(l.libs)
}

// pluginFile reports whether name carries one of the loader's plugin extensions.
func (l *Loader[F]) pluginFile(name string) bool {
	return slices.Contains(l.exts, strings.ToLower(filepath.Ext(name)))
}

// LoadDir loads every plugin file directly inside dir, several at a time.
// Failures of individual plugins are logged and skipped. It returns the total
// number of commands registered.
func (l *Loader[F]) LoadDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read plugin directory: %w", err)
	}

	var total atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)

	for _, e := range entries {
		if e.IsDir() || !l.pluginFile(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if n, err := l.Load(gctx, path); err == nil {
				total.Add(int64(n))
			}

			return nil
		})
	}

	err = g.Wait()

	return int(total.Load()), err
}
