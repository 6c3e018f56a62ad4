package schema

import (
	"bytes"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/structlayout/errors"
	"github.com/wippyai/structlayout/structs"
	"github.com/wippyai/structlayout/types"
)

// Document is a parsed schema file.
type Document struct {
	Model   string      `yaml:"model"`
	Structs []StructDef `yaml:"structs"`
}

// StructDef declares one struct.
type StructDef struct {
	Name   string     `yaml:"name"`
	Fields []FieldDef `yaml:"fields"`
	Packed bool       `yaml:"packed"`
}

// FieldDef declares one field by type name.
type FieldDef struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Load decodes a document. Unknown keys are rejected.
func Load(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return &doc, nil
		}
		return nil, errors.ParseFailed("schema", err)
	}
	return &doc, nil
}

// Parse decodes a document from data.
func Parse(data []byte) (*Document, error) {
	return Load(bytes.NewReader(data))
}

// LoadFile decodes the document at path.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Load("open schema "+path, err)
	}
	defer f.Close()
	return Load(f)
}

// Set is the struct types built from a document.
type Set struct {
	reg   *types.Registry
	byKey map[string]*structs.Type
	names []string
}

// Build creates the document's struct types. opts apply to every type,
// after the name, packing and registry the document sets.
func (d *Document) Build(opts ...structs.Option) (*Set, error) {
	model := types.LP64
	if d.Model != "" {
		var err error
		if model, err = types.ParseDataModel(d.Model); err != nil {
			return nil, err
		}
	}

	set := &Set{
		reg:   types.NewRegistry(model),
		byKey: make(map[string]*structs.Type, len(d.Structs)),
	}
	for _, sd := range d.Structs {
		st := structs.New(append([]structs.Option{
			structs.WithName(sd.Name),
			structs.WithPacked(sd.Packed),
			structs.WithRegistry(set.reg),
		}, opts...)...)
		if err := set.reg.Register(sd.Name, st); err != nil {
			return nil, err
		}
		set.byKey[sd.Name] = st
		set.names = append(set.names, sd.Name)
	}

	defined := make(map[string]bool, len(d.Structs))
	for _, sd := range d.Structs {
		st := set.byKey[sd.Name]
		for _, fd := range sd.Fields {
			if base, byValue, ok := set.reg.Base(fd.Type); ok && byValue {
				if dep, isStruct := base.(*structs.Type); isStruct && !defined[dep.Name()] {
					return nil, errors.New(errors.PhaseDefine, errors.KindUnknownType).
						Path(sd.Name, fd.Name).
						Value(fd.Type).
						Detail("unknown type name `%s`: struct %s is embedded before it is defined", fd.Type, dep.Name()).
						Build()
				}
			}
			if _, err := st.Define(fd.Name, fd.Type); err != nil {
				return nil, withPath(err, sd.Name, fd.Name)
			}
		}
		defined[sd.Name] = true
	}
	return set, nil
}

func withPath(err error, structName, field string) error {
	if e, ok := err.(*errors.Error); ok && len(e.Path) == 0 {
		e.Path = []string{structName, field}
	}
	return err
}

// Type returns the struct named name.
func (s *Set) Type(name string) (*structs.Type, bool) {
	st, ok := s.byKey[name]
	return st, ok
}

// Names returns the struct names in document order.
func (s *Set) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Registry returns the registry holding the builtin and struct names.
func (s *Set) Registry() *types.Registry { return s.reg }

// Model returns the data model the set was built for.
func (s *Set) Model() types.DataModel { return s.reg.Model() }
