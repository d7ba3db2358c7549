package plugincore

import "errors"

// Registration errors.
var (
	ErrEmptyName  = errors.New("empty command name")
	ErrNilCommand = errors.New("nil command implementation")
	ErrDuplicate  = errors.New("duplicate command")
)

// Load errors. Each one is wrapped with the offending path.
var (
	ErrEmptyPath   = errors.New("empty plugin path")
	ErrPathDenied  = errors.New("plugin path not allowed by policy")
	ErrOpen        = errors.New("failed to open plugin")
	ErrSymbol      = errors.New("plugin symbol not found")
	ErrNilManifest = errors.New("plugin returned nil manifest")
	ErrABIVersion  = errors.New("incompatible ABI version")
	ErrStructSize  = errors.New("incompatible manifest struct_size")
)
