//go:build !((linux || darwin || freebsd) && cgo)

package plugincore

import (
	"context"
	"errors"
)

// Native reports that Go plugins are unavailable on this platform or without cgo.
var Native Opener = OpenerFunc(func(context.Context, string) (Library, error) {
	return nil, errors.New("native plugins are not supported on this platform")
})
