//go:build (linux || darwin || freebsd) && cgo

package plugincore

import (
	"context"
	"plugin"
)

// Native opens Go plugins built with -buildmode=plugin.
var Native Opener = OpenerFunc(openNative)

type nativeLibrary struct {
	p *plugin.Plugin
}

func (l nativeLibrary) Lookup(symbol string) (any, error) {
	sym, err := l.p.Lookup(symbol)
	if err != nil {
		return nil, err
	}

	return sym, nil
}

func openNative(_ context.Context, path string) (Library, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}

	return nativeLibrary{p: p}, nil
}
