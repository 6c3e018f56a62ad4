package types

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/wippyai/structlayout/errors"
)

// Registry maps type names to descriptors for one data model. Names may
// carry pointer ("T *", "T **") and array ("T[8]", "T[2][3]") suffixes,
// which are resolved on demand and cached.
type Registry struct {
	model    DataModel
	mu       sync.RWMutex
	names    map[string]Descriptor
	resolved map[string]Descriptor
}

// NewRegistry returns a registry preloaded with the builtin C type names
// sized for model.
func NewRegistry(model DataModel) *Registry {
	r := &Registry{
		model:    model,
		names:    make(map[string]Descriptor),
		resolved: make(map[string]Descriptor),
	}
	cstr := CString(model)
	builtin := map[string]Descriptor{
		"void":      Void,
		"bool":      Bool,
		"int8":      Int8,
		"uint8":     Uint8,
		"int16":     Int16,
		"uint16":    Uint16,
		"int32":     Int32,
		"uint32":    Uint32,
		"int64":     Int64,
		"uint64":    Uint64,
		"byte":      Uint8,
		"char":      Int8,
		"uchar":     Uint8,
		"short":     Int16,
		"ushort":    Uint16,
		"int":       Int32,
		"uint":      Uint32,
		"long":      model.Long(),
		"ulong":     model.ULong(),
		"longlong":  Int64,
		"ulonglong": Uint64,
		"size_t":    model.SizeT(),
		"float":     Float32,
		"double":    Float64,
		"string":    cstr,
		"CString":   cstr,
		"pointer":   Pointer(nil, model),
	}
	for name, d := range builtin {
		r.names[name] = d
	}
	return r
}

// Model returns the registry's data model.
func (r *Registry) Model() DataModel { return r.model }

// Register binds name to d. Names must be non-empty, unique, and free of
// pointer or array syntax.
func (r *Registry) Register(name string, d Descriptor) error {
	if d == nil {
		return errors.InvalidArgument(errors.PhaseDefine, "nil", "cannot register a nil descriptor")
	}
	if name == "" || name != strings.TrimSpace(name) || strings.ContainsAny(name, "*[]") {
		return errors.New(errors.PhaseDefine, errors.KindInvalidArgument).
			Value(name).
			Detail("invalid type name %q", name).
			Build()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.names[name]; exists {
		return errors.New(errors.PhaseDefine, errors.KindInvalidArgument).
			Value(name).
			Detail("type name %q already registered", name).
			Build()
	}
	r.names[name] = d
	return nil
}

// Lookup returns the descriptor registered under exactly name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.names[name]
	return d, ok
}

// Names returns the registered base names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.names))
	for name := range r.names {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Resolve parses a type name with optional suffixes. Array dimensions bind
// tighter than pointers, as in C declarators read left to right:
// "char *[4]" is an array of four pointers and "int[2][3]" is two arrays
// of three ints.
func (r *Registry) Resolve(name string) (Descriptor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.UnknownType(name)
	}

	r.mu.RLock()
	if d, ok := r.names[name]; ok {
		r.mu.RUnlock()
		return d, nil
	}
	if d, ok := r.resolved[name]; ok {
		r.mu.RUnlock()
		return d, nil
	}
	r.mu.RUnlock()

	d, err := r.parse(name)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if cached, ok := r.resolved[name]; ok {
		d = cached
	} else {
		r.resolved[name] = d
	}
	r.mu.Unlock()
	return d, nil
}

// Base returns the registered descriptor a type name is built from. byValue
// reports whether the name stores it directly, with array suffixes only and
// no pointer. Base never constructs or seals a descriptor.
func (r *Registry) Base(name string) (d Descriptor, byValue bool, ok bool) {
	base, stars, _, err := splitName(strings.TrimSpace(name))
	if err != nil {
		return nil, false, false
	}
	d, ok = r.Lookup(base)
	return d, stars == 0, ok
}

// splitName breaks "T **[2][3]" into its base name, pointer count and
// array dimensions collected right to left.
func splitName(name string) (base string, stars int, dims []uint32, err error) {
	rest := name
	for strings.HasSuffix(rest, "]") {
		open := strings.LastIndexByte(rest, '[')
		if open < 0 {
			return "", 0, nil, errors.UnknownType(name)
		}
		n, perr := strconv.ParseUint(strings.TrimSpace(rest[open+1:len(rest)-1]), 10, 32)
		if perr != nil {
			return "", 0, nil, errors.New(errors.PhaseParse, errors.KindUnknownType).
				Value(name).
				Cause(perr).
				Detail("unknown type name `%s`: bad array length", name).
				Build()
		}
		dims = append(dims, uint32(n))
		rest = strings.TrimSpace(rest[:open])
	}
	for strings.HasSuffix(rest, "*") {
		stars++
		rest = strings.TrimSpace(rest[:len(rest)-1])
	}
	return rest, stars, dims, nil
}

func (r *Registry) parse(name string) (Descriptor, error) {
	rest, stars, dims, err := splitName(name)
	if err != nil {
		return nil, err
	}

	base, ok := r.Lookup(rest)
	if !ok {
		return nil, errors.UnknownType(name)
	}

	d := base
	for i := 0; i < stars; i++ {
		if d == Void {
			d = Pointer(nil, r.model)
			continue
		}
		d = Pointer(d, r.model)
	}
	// dims were collected right to left; the rightmost is innermost.
	for _, n := range dims {
		arr, err := Array(d, n)
		if err != nil {
			return nil, err
		}
		d = arr
	}
	return d, nil
}
