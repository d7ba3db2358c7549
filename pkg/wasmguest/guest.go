//go:build wasip1

package wasmguest

import "unsafe"

//go:wasmimport env log_info
func logInfo(ptr, size uint32)

//go:wasmimport env log_warn
func logWarn(ptr, size uint32)

//go:wasmimport env log_error
func logError(ptr, size uint32)

// published keeps manifest regions reachable for the life of the module.
var published [][]byte

// Publish lays m out in guest memory and returns its address, the value the
// manifest accessor export must return. The region is never freed.
//
//nolint:gosec // guest addresses are 32-bit.
func Publish(m Manifest) uint32 {
	region := make([]byte, len(Layout(0, m)))
	base := uint32(uintptr(unsafe.Pointer(&region[0])))
	copy(region, Layout(base, m))
	published = append(published, region)

	return base
}

// LogInfo sends msg to the host's diagnostics channel at INFO.
func LogInfo(msg string) { send(logInfo, msg) }

// LogWarn sends msg to the host's diagnostics channel at WARN.
func LogWarn(msg string) { send(logWarn, msg) }

// LogError sends msg to the host's diagnostics channel at ERROR.
func LogError(msg string) { send(logError, msg) }

//nolint:gosec // guest addresses are 32-bit.
func send(fn func(ptr, size uint32), msg string) {
	if msg == "" {
		return
	}
	b := []byte(msg)
	fn(uint32(uintptr(unsafe.Pointer(&b[0]))), uint32(len(b)))
}
