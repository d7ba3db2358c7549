// Package wasmtest assembles small wasm plugin binaries for tests.
//
// Modules import env.log_info and contain one exported memory, a single data
// segment and any number of exported () -> i32 functions.
package wasmtest

import "github.com/andrei-cloud/plugcore/pkg/wasmguest"

// ManifestBase is the guest address Plugin places the manifest at.
const ManifestBase = 1024

const pageSize = 65536

// Export is an exported () -> i32 function. Body holds the instructions
// without the trailing end opcode.
type Export struct {
	Name string
	Body []byte
}

// Return is a body returning the constant v.
func Return(v int32) []byte {
	return append([]byte{0x41}, sleb(int64(v))...)
}

// Trap is a body executing unreachable.
func Trap() []byte {
	return []byte{0x00}
}

// Const is an export returning v.
func Const(name string, v int32) Export {
	return Export{Name: name, Body: Return(v)}
}

// Trapping is an export that traps when called.
func Trapping(name string) Export {
	return Export{Name: name, Body: Trap()}
}

// LogInfo is an export that passes the guest string at addr to env.log_info
// and returns 0.
func LogInfo(name string, addr, n uint32) Export {
	body := concat([]byte{0x41}, sleb(int64(addr)), []byte{0x41}, sleb(int64(n)),
		[]byte{0x10, 0x00}, Return(0))

	return Export{Name: name, Body: body}
}

// Plugin builds a module whose accessor symbol returns the address of m.
func Plugin(symbol string, m wasmguest.Manifest, exports ...Export) []byte {
	all := append([]Export{{Name: symbol, Body: Return(ManifestBase)}}, exports...)

	return Module(wasmguest.Layout(ManifestBase, m), ManifestBase, all...)
}

// Module encodes a wasm binary with data placed at dataAt.
func Module(data []byte, dataAt uint32, exports ...Export) []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	// type 0: () -> i32, type 1: (i32, i32) -> ().
	out = append(out, section(1, concat(uleb(2),
		[]byte{0x60, 0x00, 0x01, 0x7f},
		[]byte{0x60, 0x02, 0x7f, 0x7f, 0x00}))...)

	// function 0 is the imported logger, so exports start at index 1.
	out = append(out, section(2, concat(uleb(1), name("env"), name("log_info"), []byte{0x00, 0x01}))...)

	funcs := uleb(uint64(len(exports)))
	for range exports {
		funcs = append(funcs, 0x00)
	}
	out = append(out, section(3, funcs)...)

	pages := (uint64(dataAt)+uint64(len(data)))/pageSize + 1
	out = append(out, section(5, concat(uleb(1), []byte{0x00}, uleb(pages)))...)

	exps := uleb(uint64(len(exports) + 1))
	exps = append(exps, name("memory")...)
	exps = append(exps, 0x02, 0x00)
	for i, e := range exports {
		exps = append(exps, name(e.Name)...)
		exps = append(exps, 0x00)
		exps = append(exps, uleb(uint64(i+1))...)
	}
	out = append(out, section(7, exps)...)

	code := uleb(uint64(len(exports)))
	for _, e := range exports {
		body := concat([]byte{0x00}, e.Body, []byte{0x0b})
		code = append(code, uleb(uint64(len(body)))...)
		code = append(code, body...)
	}
	out = append(out, section(10, code)...)

	if len(data) > 0 {
		seg := concat(uleb(1), []byte{0x00, 0x41}, sleb(int64(dataAt)), []byte{0x0b},
			uleb(uint64(len(data))), data)
		out = append(out, section(11, seg)...)
	}

	return out
}

func section(id byte, content []byte) []byte {
	return concat([]byte{id}, uleb(uint64(len(content))), content)
}

func name(s string) []byte {
	return concat(uleb(uint64(len(s))), []byte(s))
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}

	return out
}

func uleb(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func sleb(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}
