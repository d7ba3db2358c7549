package plugincore

import (
	"context"
	"path/filepath"
	"strings"
)

// Library is an opened plugin. Handles are never closed by the runtime since
// registered commands may point into them.
type Library interface {
	Lookup(symbol string) (any, error)
}

// Opener opens a plugin at a filesystem path.
type Opener interface {
	Open(ctx context.Context, path string) (Library, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, path string) (Library, error)

// Open calls f(ctx, path).
func (f OpenerFunc) Open(ctx context.Context, path string) (Library, error) {
	return f(ctx, path)
}

// ExtOpener dispatches on the file extension of the path, falling back to
// Default for unknown extensions. Extensions are matched case-insensitively
// and include the leading dot.
type ExtOpener struct {
	ByExt   map[string]Opener
	Default Opener
}

// Open implements Opener.
func (e ExtOpener) Open(ctx context.Context, path string) (Library, error) {
	if o, ok := e.ByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return o.Open(ctx, path)
	}
	if e.Default == nil {
		return nil, errUnsupportedExt(path)
	}

	return e.Default.Open(ctx, path)
}

type errUnsupportedExt string

func (e errUnsupportedExt) Error() string {
	return "no opener for plugin type " + filepath.Ext(string(e))
}
