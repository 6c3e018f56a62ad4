package wasmmem

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/structlayout/errors"
)

// PageSize is the size of a WebAssembly memory page.
const PageSize = 65536

// Memory adapts a wazero api.Memory to structlayout.Memory. Multi-byte
// values are little-endian, as WebAssembly requires.
type Memory struct {
	mem api.Memory
}

// Wrap returns mem as a Memory, or nil when mem is nil.
func Wrap(mem api.Memory) *Memory {
	if mem == nil {
		return nil
	}
	return &Memory{mem: mem}
}

// Raw returns the wrapped wazero memory.
func (m *Memory) Raw() api.Memory { return m.mem }

// Size returns the current memory size in bytes.
func (m *Memory) Size() uint32 { return m.mem.Size() }

// outOfBounds reports an access of n bytes at offset past the end of the
// memory, as a bounds error like the rest of the module.
func (m *Memory) outOfBounds(phase errors.Phase, offset uint32, n uint64) error {
	return errors.OutOfBounds(phase, nil, uint64(offset), n, m.mem.Size())
}

// Read returns a view of length bytes. The view is invalidated when the
// memory grows.
func (m *Memory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, m.outOfBounds(errors.PhaseGet, offset, uint64(length))
	}
	return data, nil
}

// Write copies data into memory.
func (m *Memory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return m.outOfBounds(errors.PhaseSet, offset, uint64(len(data)))
	}
	return nil
}

// ReadU8 reads a byte at offset.
func (m *Memory) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.mem.ReadByte(offset)
	if !ok {
		return 0, m.outOfBounds(errors.PhaseGet, offset, 1)
	}
	return v, nil
}

// ReadU16 reads a little-endian uint16 at offset.
func (m *Memory) ReadU16(offset uint32) (uint16, error) {
	v, ok := m.mem.ReadUint16Le(offset)
	if !ok {
		return 0, m.outOfBounds(errors.PhaseGet, offset, 2)
	}
	return v, nil
}

// ReadU32 reads a little-endian uint32 at offset.
func (m *Memory) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, m.outOfBounds(errors.PhaseGet, offset, 4)
	}
	return v, nil
}

// ReadU64 reads a little-endian uint64 at offset.
func (m *Memory) ReadU64(offset uint32) (uint64, error) {
	v, ok := m.mem.ReadUint64Le(offset)
	if !ok {
		return 0, m.outOfBounds(errors.PhaseGet, offset, 8)
	}
	return v, nil
}

// WriteU8 writes a byte at offset.
func (m *Memory) WriteU8(offset uint32, value uint8) error {
	if !m.mem.WriteByte(offset, value) {
		return m.outOfBounds(errors.PhaseSet, offset, 1)
	}
	return nil
}

// WriteU16 writes a little-endian uint16 at offset.
func (m *Memory) WriteU16(offset uint32, value uint16) error {
	if !m.mem.WriteUint16Le(offset, value) {
		return m.outOfBounds(errors.PhaseSet, offset, 2)
	}
	return nil
}

// WriteU32 writes a little-endian uint32 at offset.
func (m *Memory) WriteU32(offset uint32, value uint32) error {
	if !m.mem.WriteUint32Le(offset, value) {
		return m.outOfBounds(errors.PhaseSet, offset, 4)
	}
	return nil
}

// WriteU64 writes a little-endian uint64 at offset.
func (m *Memory) WriteU64(offset uint32, value uint64) error {
	if !m.mem.WriteUint64Le(offset, value) {
		return m.outOfBounds(errors.PhaseSet, offset, 8)
	}
	return nil
}
