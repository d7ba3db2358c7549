// Package wasmguest provides helpers for building wasm plugins: the manifest
// binary layout a plugincore host reads out of guest memory.
package wasmguest

import "encoding/binary"

// ABIVersion must match the host's plugincore.ABIVersion.
const ABIVersion uint32 = 1

// ManifestSize is the size of the manifest header in guest memory.
const ManifestSize = 28

// EntrySize is the size of one command table entry.
const EntrySize = 16

// Entry names a command and the () -> i32 export implementing it. An empty
// Name is written as a null pointer, as is an empty Export.
type Entry struct {
	Name   string
	Export string
}

// Manifest is the guest-side description of a plugin.
type Manifest struct {
	Name         string
	Version      uint32
	CommandCount uint32
	Entries      []Entry
	ABIVersion   uint32
	StructSize   uint32
}

// NewManifest returns a manifest with the ABI fields of this package filled in.
func NewManifest(name string, version uint32, entries ...Entry) Manifest {
	return Manifest{
		Name:         name,
		Version:      version,
		CommandCount: uint32(len(entries)),
		Entries:      entries,
		ABIVersion:   ABIVersion,
		StructSize:   ManifestSize,
	}
}

// Layout serializes m for placement at guest address base. The header comes
// first, so base is also the address the manifest accessor must return.
// All pointers in the result are absolute guest addresses.
func Layout(base uint32, m Manifest) []byte {
	buf := make([]byte, ManifestSize)

	nameAddr, nameLen := appendString(&buf, base, m.Name)

	var tableAddr uint32
	tableOff := 0
	if len(m.Entries) > 0 {
		align4(&buf)
		tableOff = len(buf)
		tableAddr = base + uint32(tableOff)
		buf = append(buf, make([]byte, len(m.Entries)*EntrySize)...)
	}

	for i, e := range m.Entries {
		off := tableOff + i*EntrySize
		na, nl := appendString(&buf, base, e.Name)
		ea, el := appendString(&buf, base, e.Export)
		putU32(buf, off, na)
		putU32(buf, off+4, nl)
		putU32(buf, off+8, ea)
		putU32(buf, off+12, el)
	}

	putU32(buf, 0, nameAddr)
	putU32(buf, 4, nameLen)
	putU32(buf, 8, m.Version)
	putU32(buf, 12, m.CommandCount)
	putU32(buf, 16, tableAddr)
	putU32(buf, 20, m.ABIVersion)
	putU32(buf, 24, m.StructSize)

	return buf
}

func appendString(buf *[]byte, base uint32, s string) (addr, n uint32) {
	if s == "" {
		return 0, 0
	}
	addr = base + uint32(len(*buf))
	*buf = append(*buf, s...)

	return addr, uint32(len(s))
}

func align4(buf *[]byte) {
	for len(*buf)%4 != 0 {
		*buf = append(*buf, 0)
	}
}

func putU32(buf []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(buf[off:off+4], v)
}
