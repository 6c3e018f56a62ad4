package structs

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/structlayout"
	"github.com/wippyai/structlayout/buffer"
	"github.com/wippyai/structlayout/errors"
	"github.com/wippyai/structlayout/hostmem"
	"github.com/wippyai/structlayout/internal/layout"
	"github.com/wippyai/structlayout/types"
)

// Field is one member of a struct type.
type Field struct {
	Type   types.Descriptor
	Name   string
	Offset uint32
	Index  int
}

// End returns the offset just past the field.
func (f Field) End() uint32 { return f.Offset + f.Type.Size() }

// FieldSpec names a field to define. Type is a types.Descriptor (including
// another *Type) or a type name resolved through the registry.
type FieldSpec struct {
	Type any
	Name string
}

// Option configures a Type.
type Option func(*Type)

// WithName sets the struct name used in messages and pointer type names.
func WithName(name string) Option {
	return func(t *Type) { t.name = name }
}

// WithPacked removes all padding and forces alignment 1.
func WithPacked(packed bool) Option {
	return func(t *Type) { t.packed = packed }
}

// WithRegistry sets the registry that resolves field type names.
func WithRegistry(reg *types.Registry) Option {
	return func(t *Type) { t.reg = reg }
}

// WithMemory sets where New and NewFrom allocate instances.
func WithMemory(mem structlayout.Memory, alloc structlayout.Allocator) Option {
	return func(t *Type) {
		t.mem = mem
		t.alloc = alloc
	}
}

var (
	defaultRegistry     *types.Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the registry used by types created without
// WithRegistry. It resolves names for the LP64 data model.
func DefaultRegistry() *types.Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = types.NewRegistry(types.LP64)
	})
	return defaultRegistry
}

// Type is a struct type under construction or, once sealed, an immutable
// descriptor.
type Type struct {
	reg   *types.Registry
	mem   structlayout.Memory
	alloc structlayout.Allocator
	index map[string]int
	name  string

	fields []Field
	info   layout.Info

	mu     sync.RWMutex
	sealed atomic.Bool
	packed bool
}

// New returns an empty struct type.
func New(opts ...Option) *Type {
	t := &Type{
		index: make(map[string]int),
		info:  layout.Empty,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.reg == nil {
		t.reg = DefaultRegistry()
	}
	if t.mem == nil {
		arena := hostmem.Default()
		t.mem, t.alloc = arena, arena
	}
	return t
}

// NewFromFields returns a struct type with fields laid out in order. The
// fields are validated and placed together, so an error leaves no partly
// built type behind.
func NewFromFields(fields []FieldSpec, opts ...Option) (*Type, error) {
	t := New(opts...)
	if err := t.defineAll(fields); err != nil {
		return nil, err
	}
	return t, nil
}

// Define appends a field. typ is a types.Descriptor or a type name. On
// error the type is left exactly as it was. Define returns t so calls can
// be chained.
func (t *Type) Define(name string, typ any) (*Type, error) {
	if t.sealed.Load() {
		return t, errors.Finalized(t.Name(), name)
	}
	// Resolving may build arrays, which seal their element type, so it
	// runs before t.mu is taken.
	desc, err := t.prepare(name, typ)
	if err != nil {
		return t, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sealed.Load() {
		return t, errors.Finalized(t.Name(), name)
	}
	if _, dup := t.index[name]; dup {
		return t, errors.DuplicateField(t.Name(), name)
	}

	offset, info, err := layout.Append(t.info, desc.Size(), desc.Align(), t.packed)
	if err != nil {
		return t, t.fieldError(err, name)
	}
	t.commit(name, desc, offset)
	t.info = info
	return t, nil
}

func (t *Type) defineAll(fields []FieldSpec) error {
	descs := make([]types.Descriptor, len(fields))
	specs := make([]layout.Spec, len(fields))
	for i, f := range fields {
		desc, err := t.prepare(f.Name, f.Type)
		if err != nil {
			return err
		}
		descs[i] = desc
		specs[i] = layout.Spec{Name: f.Name, Size: desc.Size(), Align: desc.Align()}
	}

	res, err := layout.Compute(specs, t.packed)
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			e.Path = append([]string{t.Name()}, e.Path...)
		}
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for i, f := range fields {
		t.commit(f.Name, descs[i], res.Offsets[i])
	}
	t.info = res.Info
	return nil
}

// prepare resolves and validates one field without touching t.
func (t *Type) prepare(name string, typ any) (types.Descriptor, error) {
	if name == "" {
		return nil, errors.InvalidArgument(errors.PhaseDefine, "string", "field name is empty")
	}
	desc, err := t.resolve(name, typ)
	if err != nil {
		return nil, err
	}
	if contains(desc, t) {
		return nil, t.selfEmbedding(name)
	}
	if desc.Size() == 0 {
		return nil, errors.ZeroSize([]string{t.Name(), name}, desc.Name())
	}
	return desc, nil
}

// commit records a placed field. The caller holds t.mu and updates t.info.
func (t *Type) commit(name string, desc types.Descriptor, offset uint32) {
	types.Seal(desc)
	f := Field{Name: name, Type: desc, Offset: offset, Index: len(t.fields)}
	t.fields = append(t.fields, f)
	t.index[name] = f.Index

	Logger().Debug("field defined",
		zap.String("struct", t.Name()),
		zap.String("field", name),
		zap.String("type", desc.Name()),
		zap.Uint32("offset", offset),
		zap.Uint32("size", desc.Size()))
}

func (t *Type) fieldError(err error, name string) error {
	if e, ok := err.(*errors.Error); ok {
		e.Path = []string{t.Name(), name}
	}
	return err
}

func (t *Type) resolve(field string, typ any) (types.Descriptor, error) {
	switch v := typ.(type) {
	case string:
		if base, byValue, ok := t.reg.Base(v); ok && byValue && base == types.Descriptor(t) {
			return nil, t.selfEmbedding(field)
		}
		return t.reg.Resolve(v)
	case types.Descriptor:
		return v, nil
	}
	return nil, errors.New(errors.PhaseDefine, errors.KindInvalidArgument).
		GoType(fmt.Sprintf("%T", typ)).
		Detail("field type must be a descriptor or a type name").
		Build()
}

func (t *Type) selfEmbedding(field string) *errors.Error {
	return errors.New(errors.PhaseDefine, errors.KindInvalidArgument).
		Path(t.Name(), field).
		CType(t.Name()).
		Detail("struct cannot contain itself; use a pointer").
		Build()
}

// contains reports whether d stores t by value, directly or as an array
// element.
func contains(d types.Descriptor, t *Type) bool {
	for {
		switch v := d.(type) {
		case *Type:
			return v == t
		case *types.ArrayType:
			d = v.Elem()
		default:
			return false
		}
	}
}

// Seal freezes the type. It is called implicitly on first use as a
// descriptor or when the first instance is created.
func (t *Type) Seal() {
	if t.sealed.Load() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sealed.CompareAndSwap(false, true) {
		Logger().Debug("struct type finalized",
			zap.String("struct", t.Name()),
			zap.Int("fields", len(t.fields)),
			zap.Uint32("size", t.info.Size),
			zap.Uint32("align", t.info.Align))
	}
}

// Sealed reports whether the type can no longer be modified.
func (t *Type) Sealed() bool { return t.sealed.Load() }

// Name implements types.Descriptor.
func (t *Type) Name() string {
	if t.name == "" {
		return "struct"
	}
	return t.name
}

// Size implements types.Descriptor.
func (t *Type) Size() uint32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.info.Size
}

// Align implements types.Descriptor.
func (t *Type) Align() uint32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.info.Align
}

// Packed reports whether the type has no padding.
func (t *Type) Packed() bool { return t.packed }

// Registry returns the registry that resolves field type names.
func (t *Type) Registry() *types.Registry { return t.reg }

// Memory returns where New allocates instances.
func (t *Type) Memory() (structlayout.Memory, structlayout.Allocator) { return t.mem, t.alloc }

// Fields returns the fields in definition order.
func (t *Type) Fields() []Field {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Field, len(t.fields))
	copy(out, t.fields)
	return out
}

// Field returns the named field.
func (t *Type) Field(name string) (Field, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, ok := t.index[name]
	if !ok {
		return Field{}, false
	}
	return t.fields[i], true
}

// NumFields returns the number of fields.
func (t *Type) NumFields() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.fields)
}

// Padding returns the padding bytes after each field, the last entry being
// the trailing padding.
func (t *Type) Padding() []uint32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	offsets := make([]uint32, len(t.fields))
	sizes := make([]uint32, len(t.fields))
	for i, f := range t.fields {
		offsets[i] = f.Offset
		sizes[i] = f.Type.Size()
	}
	return layout.Padding(offsets, sizes, t.info.Size)
}

// String renders the type as a C declaration annotated with offsets.
func (t *Type) String() string {
	fields := t.Fields()
	var b strings.Builder
	if t.packed {
		b.WriteString("packed ")
	}
	fmt.Fprintf(&b, "struct %s {\n", t.Name())
	for _, f := range fields {
		fmt.Fprintf(&b, "\t%s %s; // offset %d, size %d\n", f.Type.Name(), f.Name, f.Offset, f.Type.Size())
	}
	fmt.Fprintf(&b, "} // size %d, align %d", t.Size(), t.Align())
	return b.String()
}

// IdenticalTo reports whether other is a struct type with the same layout.
func (t *Type) IdenticalTo(other types.Descriptor) bool {
	o, ok := other.(*Type)
	return ok && SameLayout(t, o)
}

// SameLayout reports whether values of a and b can be copied byte for
// byte: the same packing, size and alignment, and fields with equal names,
// offsets and identical types in the same order.
func SameLayout(a, b *Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a == b {
		return true
	}
	if a.packed != b.packed || a.Size() != b.Size() || a.Align() != b.Align() {
		return false
	}
	af, bf := a.Fields(), b.Fields()
	if len(af) != len(bf) {
		return false
	}
	for i := range af {
		if af[i].Name != bf[i].Name || af[i].Offset != bf[i].Offset {
			return false
		}
		if !types.Identical(af[i].Type, bf[i].Type) {
			return false
		}
	}
	return true
}

// Get implements types.Descriptor. It returns an *Instance bound at offset.
func (t *Type) Get(buf *buffer.Buffer, offset uint32) (any, error) {
	return t.bind(errors.PhaseGet, buf, offset)
}

// Set implements types.Descriptor. It writes a whole record at offset; see
// Assign for the accepted values.
func (t *Type) Set(buf *buffer.Buffer, offset uint32, value any) error {
	inst, err := t.bind(errors.PhaseSet, buf, offset)
	if err != nil {
		return err
	}
	return inst.Assign(value)
}

// Bind returns an instance viewing buf at offset without copying. When buf
// has no allocator and lies in the type's memory, the instance allocates
// through the type's allocator.
func (t *Type) Bind(buf *buffer.Buffer, offset uint32) (*Instance, error) {
	return t.bind(errors.PhaseBind, buf, offset)
}

func (t *Type) bind(phase errors.Phase, buf *buffer.Buffer, offset uint32) (*Instance, error) {
	if buf == nil {
		return nil, errors.InvalidArgument(phase, "nil", "cannot bind to a nil buffer")
	}
	t.Seal()
	need := uint64(offset) + uint64(t.info.Size)
	if need > uint64(buf.Len()) {
		return nil, errors.BufferTooSmall(phase, need, buf.Len())
	}
	// A plain view of the type's own memory can allocate through the
	// type's allocator, so string fields stay settable.
	if buf.Allocator() == nil && t.alloc != nil && buf.Memory() == t.mem {
		buf = buf.WithAllocator(t.alloc)
	}
	return &Instance{typ: t, buf: buf, off: offset}, nil
}

// New allocates a zero-filled instance in the type's memory.
func (t *Type) New() (*Instance, error) {
	t.Seal()
	buf, err := buffer.Alloc(t.mem, t.alloc, t.info.Size, t.info.Align)
	if err != nil {
		return nil, err
	}
	Logger().Debug("instance allocated",
		zap.String("struct", t.Name()),
		zap.Uint32("address", buf.Address()),
		zap.Uint32("size", t.info.Size))
	return &Instance{typ: t, buf: buf}, nil
}

// NewFrom creates an instance from init:
//
//   - nil allocates a zeroed instance
//   - a *buffer.Buffer is bound at offset 0 without copying
//   - a map with string keys, a Go struct or an *Instance allocates a new
//     instance and assigns init to it
//
// Anything else is an invalid_argument error.
func (t *Type) NewFrom(init any) (*Instance, error) {
	switch v := init.(type) {
	case nil:
		return t.New()
	case *buffer.Buffer:
		return t.Bind(v, 0)
	}
	if !assignable(init) {
		return nil, errors.InvalidArgument(errors.PhaseBind, fmt.Sprintf("%T", init),
			"initializer must be nil, a buffer, a map, a struct or an instance")
	}
	inst, err := t.New()
	if err != nil {
		return nil, err
	}
	if err := inst.Assign(init); err != nil {
		return nil, err
	}
	return inst, nil
}
