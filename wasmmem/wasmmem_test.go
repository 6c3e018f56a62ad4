package wasmmem

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/structlayout/buffer"
	"github.com/wippyai/structlayout/errors"
	"github.com/wippyai/structlayout/structs"
	"github.com/wippyai/structlayout/types"
)

func newLinear(t *testing.T, opts ...Option) *Linear {
	t.Helper()
	ctx := context.Background()
	lin, err := New(ctx, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = lin.Close(ctx) })
	return lin
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil))
	assert.Nil(t, NewGuestAllocator(context.Background(), nil))
}

func TestMemoryModule(t *testing.T) {
	lin := newLinear(t, WithPages(2))
	assert.Equal(t, uint32(2*PageSize), lin.Memory().Size())

	// Sizes that need a multi-byte LEB128 encoding.
	assert.Equal(t, []byte{0x80, 0x01}, uleb128(128))
	assert.Equal(t, []byte{0x00}, uleb128(0))
}

func TestMemoryReadWrite(t *testing.T) {
	mem := newLinear(t).Memory()

	require.NoError(t, mem.Write(16, []byte{1, 2, 3, 4}))
	data, err := mem.Read(16, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)

	require.NoError(t, mem.WriteU16(0, 0x1234))
	v16, err := mem.ReadU16(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), v16)

	require.NoError(t, mem.WriteU32(0, 0x12345678))
	b0, err := mem.ReadU8(0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x78), b0, "little-endian")

	require.NoError(t, mem.WriteU64(8, 0x123456789ABCDEF0))
	v64, err := mem.ReadU64(8)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x123456789ABCDEF0), v64)

	_, err = mem.Read(PageSize, 1)
	assert.True(t, errors.IsBounds(err))
	assert.True(t, errors.IsBounds(mem.Write(PageSize, []byte{1})))
	err = mem.WriteU32(PageSize-2, 1)
	assert.True(t, errors.IsBounds(err))
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseSet, Kind: errors.KindOutOfBounds}))
	_, err = mem.ReadU64(PageSize - 4)
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseGet, Kind: errors.KindOutOfBounds}))
}

func TestBumpAllocatorGrows(t *testing.T) {
	lin := newLinear(t, WithPages(1))
	alloc := lin.Allocator()

	p1, err := alloc.Alloc(10, 8)
	require.NoError(t, err)
	assert.Equal(t, uint32(16), p1)

	p2, err := alloc.Alloc(4, 4)
	require.NoError(t, err)
	assert.Equal(t, uint32(28), p2)

	big, err := alloc.Alloc(PageSize, 8)
	require.NoError(t, err)
	assert.Equal(t, uint32(32), big)
	assert.Equal(t, uint32(2*PageSize), lin.Memory().Size())

	alloc.Free(big, PageSize, 8)
	again, err := alloc.Alloc(8, 8)
	require.NoError(t, err)
	assert.Equal(t, uint32(32), again)

	_, err = alloc.Alloc(4, 3)
	assert.Error(t, err)
}

func TestBumpAllocatorLimit(t *testing.T) {
	lin := newLinear(t, WithPages(1), WithMaxPages(1))
	_, err := lin.Allocator().Alloc(2*PageSize, 8)
	assert.Error(t, err)
}

func TestStructsInLinearMemory(t *testing.T) {
	lin := newLinear(t)
	reg := types.NewRegistry(types.ILP32)

	node := structs.New(structs.WithName("Node"), structs.WithRegistry(reg),
		structs.WithMemory(lin.Memory(), lin.Allocator()))
	require.NoError(t, reg.Register("Node", node))
	_, err := node.Define("id", "uint16")
	require.NoError(t, err)
	_, err = node.Define("name", "string")
	require.NoError(t, err)
	_, err = node.Define("next", "Node *")
	require.NoError(t, err)
	assert.Equal(t, uint32(12), node.Size())
	assert.Equal(t, uint32(4), node.Align())

	tail, err := node.NewFrom(map[string]any{"id": 2, "name": "tail"})
	require.NoError(t, err)
	head, err := node.NewFrom(map[string]any{"id": 0x0102, "name": "head", "next": tail})
	require.NoError(t, err)

	raw, err := head.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x01}, raw[:2])
	next, err := lin.Memory().ReadU32(head.Buffer().Address() + 8)
	require.NoError(t, err)
	assert.Equal(t, tail.Buffer().Address(), next)

	v, err := head.Get("next")
	require.NoError(t, err)
	deref, err := v.(types.Ref).Deref()
	require.NoError(t, err)
	name, err := deref.(*structs.Instance).Get("name")
	require.NoError(t, err)
	assert.Equal(t, "tail", name)
}

// bumpRealloc is a host-side cabi_realloc used to exercise GuestAllocator.
type bumpRealloc struct {
	next  uint32
	calls int
	freed []uint32
}

func (b *bumpRealloc) realloc(_ context.Context, oldPtr, oldSize, align, newSize uint32) uint32 {
	b.calls++
	if newSize == 0 {
		b.freed = append(b.freed, oldPtr)
		return 0
	}
	ptr := (b.next + align - 1) &^ (align - 1)
	b.next = ptr + newSize
	return ptr
}

func TestAttachGuestAllocator(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	guest := &bumpRealloc{next: 1024}
	host, err := rt.NewHostModuleBuilder("guest").
		NewFunctionBuilder().WithFunc(guest.realloc).Export(reallocExport).
		Instantiate(ctx)
	require.NoError(t, err)

	_, err = Attach(ctx, host)
	require.Error(t, err, "module without memory")

	mod, err := rt.Instantiate(ctx, memoryModule(1))
	require.NoError(t, err)
	lin, err := Attach(ctx, mod)
	require.NoError(t, err)
	_, isBump := lin.Allocator().(*BumpAllocator)
	assert.True(t, isBump)

	alloc := NewGuestAllocator(ctx, host.ExportedFunction(reallocExport))
	buf, err := buffer.Alloc(lin.Memory(), alloc, 6, 4)
	require.NoError(t, err)
	assert.Equal(t, uint32(1024), buf.Address())
	alloc.Free(buf.Address(), 6, 4)
	assert.Equal(t, 2, guest.calls)
	assert.Equal(t, []uint32{1024}, guest.freed)
}

func TestAttachBumpGrowsPastModuleMemory(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	mod, err := rt.Instantiate(ctx, memoryModule(1))
	require.NoError(t, err)
	lin, err := Attach(ctx, mod)
	require.NoError(t, err)

	ptr, err := lin.Allocator().Alloc(64, 8)
	require.NoError(t, err)
	assert.Equal(t, uint32(PageSize), ptr)
	assert.Equal(t, uint32(2*PageSize), lin.Memory().Size())
	assert.NoError(t, lin.Close(ctx))

	var _ api.Module = lin.Module()
}
