package witlayout

import (
	"fmt"
	"strconv"
	"sync"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/structlayout/errors"
	"github.com/wippyai/structlayout/structs"
	"github.com/wippyai/structlayout/types"
)

// Converter maps WIT types to descriptors. Type definitions are converted
// once and cached, so a record used in several places yields one struct
// type.
type Converter struct {
	reg   *types.Registry
	opts  []structs.Option
	mu    sync.Mutex
	cache map[*wit.TypeDef]types.Descriptor
}

// NewConverter returns a converter whose struct types resolve names
// through reg and are created with opts. A nil reg uses wasm32 sizes.
func NewConverter(reg *types.Registry, opts ...structs.Option) *Converter {
	if reg == nil {
		reg = types.NewRegistry(types.ILP32)
	}
	return &Converter{
		reg:   reg,
		opts:  opts,
		cache: make(map[*wit.TypeDef]types.Descriptor),
	}
}

// ParseType parses a primitive WIT type name such as "u32" or "string".
func ParseType(s string) (wit.Type, error) {
	t, err := wit.ParseType(s)
	if err != nil {
		return nil, errors.ParseFailed("WIT type "+strconv.Quote(s), err)
	}
	return t, nil
}

// Descriptor converts t.
func (c *Converter) Descriptor(t wit.Type) (types.Descriptor, error) {
	switch t := t.(type) {
	case wit.Bool:
		return types.Bool, nil
	case wit.U8:
		return types.Uint8, nil
	case wit.S8:
		return types.Int8, nil
	case wit.U16:
		return types.Uint16, nil
	case wit.S16:
		return types.Int16, nil
	case wit.U32:
		return types.Uint32, nil
	case wit.S32:
		return types.Int32, nil
	case wit.U64:
		return types.Uint64, nil
	case wit.S64:
		return types.Int64, nil
	case wit.F32:
		return types.Float32, nil
	case wit.F64:
		return types.Float64, nil
	case wit.Char:
		return Char, nil
	case wit.String:
		return String, nil
	case *wit.TypeDef:
		return c.typeDef(t)
	}
	return nil, errors.Unsupported(errors.PhaseDefine, "WIT type "+typeName(t))
}

// Record converts a record or tuple definition into a struct type.
func (c *Converter) Record(td *wit.TypeDef) (*structs.Type, error) {
	d, err := c.typeDef(td)
	if err != nil {
		return nil, err
	}
	st, ok := d.(*structs.Type)
	if !ok {
		return nil, errors.New(errors.PhaseDefine, errors.KindTypeMismatch).
			CType(d.Name()).
			Detail("WIT type %s is not a record", defName(td)).
			Build()
	}
	return st, nil
}

func (c *Converter) typeDef(td *wit.TypeDef) (types.Descriptor, error) {
	if td == nil {
		return nil, errors.InvalidArgument(errors.PhaseDefine, "nil", "WIT type definition is nil")
	}
	c.mu.Lock()
	d, ok := c.cache[td]
	c.mu.Unlock()
	if ok {
		return d, nil
	}

	d, err := c.convertKind(td)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.cache[td]; ok {
		return cached, nil
	}
	c.cache[td] = d
	return d, nil
}

func (c *Converter) convertKind(td *wit.TypeDef) (types.Descriptor, error) {
	name := defName(td)
	switch k := td.Kind.(type) {
	case *wit.Record:
		fields := make([]structs.FieldSpec, len(k.Fields))
		for i, f := range k.Fields {
			d, err := c.Descriptor(f.Type)
			if err != nil {
				return nil, wrapField(err, name, f.Name)
			}
			fields[i] = structs.FieldSpec{Name: f.Name, Type: d}
		}
		return c.newStruct(name, fields)
	case *wit.Tuple:
		fields := make([]structs.FieldSpec, len(k.Types))
		for i, t := range k.Types {
			d, err := c.Descriptor(t)
			if err != nil {
				return nil, wrapField(err, name, strconv.Itoa(i))
			}
			fields[i] = structs.FieldSpec{Name: strconv.Itoa(i), Type: d}
		}
		return c.newStruct(name, fields)
	case *wit.Enum:
		cases := make([]string, len(k.Cases))
		for i, ec := range k.Cases {
			cases[i] = ec.Name
		}
		return NewEnum(name, cases)
	case wit.Type:
		// type alias
		return c.Descriptor(k)
	}
	return nil, errors.Unsupported(errors.PhaseDefine, "WIT type "+name+" ("+typeName(td.Kind)+")")
}

func (c *Converter) newStruct(name string, fields []structs.FieldSpec) (*structs.Type, error) {
	opts := append([]structs.Option{structs.WithName(name), structs.WithRegistry(c.reg)}, c.opts...)
	return structs.NewFromFields(fields, opts...)
}

func wrapField(err error, record, field string) error {
	if e, ok := err.(*errors.Error); ok && len(e.Path) == 0 {
		e.Path = []string{record, field}
	}
	return err
}

func defName(td *wit.TypeDef) string {
	if td.Name != nil {
		return *td.Name
	}
	return "anonymous"
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
