package plugincore

import (
	"fmt"
	"unsafe"
)

// ABIVersion identifies the manifest layout this host understands.
// Plugins must report exactly this value.
const ABIVersion uint32 = 1

// DefaultSymbol is the exported name of the manifest accessor in native plugins.
const DefaultSymbol = "PluginInfo"

// CommandDesc describes one command exported by a plugin.
type CommandDesc[F any] struct {
	Name string
	Impl F
}

// Manifest is the descriptor a plugin hands to the host during Load.
// The host reads it only for the duration of the load and keeps nothing but
// the registered (name, impl) pairs.
type Manifest[F any] struct {
	PluginName   string
	Version      uint32
	CommandCount uint32
	Commands     []CommandDesc[F]
	ABIVersion   uint32
	StructSize   uintptr
}

// ManifestSize is the host's compiled size of Manifest. The layout does not
// depend on F since commands live behind a slice header.
var ManifestSize = unsafe.Sizeof(Manifest[struct{}]{})

// NewManifest fills in the ABI fields for a native plugin built against this package.
func NewManifest[F any](name string, version uint32, cmds ...CommandDesc[F]) *Manifest[F] {
	return &Manifest[F]{
		PluginName:   name,
		Version:      version,
		CommandCount: uint32(len(cmds)),
		Commands:     cmds,
		ABIVersion:   ABIVersion,
		StructSize:   ManifestSize,
	}
}

// ManifestSizer is implemented by libraries whose manifest layout differs from
// the native Go struct, such as wasm modules.
type ManifestSizer interface {
	ManifestSize() uintptr
}

// Validate checks the ABI fields of m against this host. minSize is the
// smallest struct_size the host accepts for the library's layout.
func Validate[F any](m *Manifest[F], minSize uintptr) error {
	if m.ABIVersion != ABIVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrABIVersion, m.ABIVersion, ABIVersion)
	}
	if m.StructSize < minSize {
		return fmt.Errorf("%w: got %d, want at least %d", ErrStructSize, m.StructSize, minSize)
	}

	return nil
}

// entries returns the bounded command window: at most CommandCount entries.
func (m *Manifest[F]) entries() []CommandDesc[F] {
	n := int(m.CommandCount)
	if n > len(m.Commands) {
		n = len(m.Commands)
	}

	return m.Commands[:n]
}
