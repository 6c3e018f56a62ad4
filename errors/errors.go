package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDefine Phase = "define" // field registration and layout
	PhaseBind   Phase = "bind"   // instance construction over a buffer
	PhaseGet    Phase = "get"    // memory to Go
	PhaseSet    Phase = "set"    // Go to memory
	PhaseAlloc  Phase = "alloc"  // buffer allocation
	PhaseParse  Phase = "parse"  // type names and schema documents
	PhaseLoad   Phase = "load"   // memory backends and modules
)

// Kind categorizes the error
type Kind string

const (
	KindDuplicateField  Kind = "duplicate_field"
	KindZeroSize        Kind = "zero_size"
	KindUnknownType     Kind = "unknown_type"
	KindFinalized       Kind = "finalized"
	KindOutOfBounds     Kind = "out_of_bounds"
	KindInvalidArgument Kind = "invalid_argument"
	KindTypeMismatch    Kind = "type_mismatch"
	KindOverflow        Kind = "overflow"
	KindNilPointer      Kind = "nil_pointer"
	KindInvalidData     Kind = "invalid_data"
	KindFieldUnknown    Kind = "field_unknown"
	KindAllocation      Kind = "allocation"
	KindUnsupported     Kind = "unsupported"
	KindNotFound        Kind = "not_found"
)

// Category groups kinds into the three failure classes callers branch on.
type Category string

const (
	CategoryDefinition Category = "definition"
	CategoryBounds     Category = "bounds"
	CategoryArgument   Category = "argument"
	CategoryOther      Category = "other"
)

// Category returns the failure class of k.
func (k Kind) Category() Category {
	switch k {
	case KindDuplicateField, KindZeroSize, KindUnknownType, KindFinalized:
		return CategoryDefinition
	case KindOutOfBounds:
		return CategoryBounds
	case KindInvalidArgument:
		return CategoryArgument
	default:
		return CategoryOther
	}
}

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	GoType string
	CType  string
	Detail string
	Path   []string
}

// Error renders as "[phase] kind at path: Go type G, C type C - detail
// (caused by: cause)", omitting the parts that are unset.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Phase, e.Kind)
	if len(e.Path) > 0 {
		fmt.Fprintf(&b, " at %s", strings.Join(e.Path, "."))
	}

	var types []string
	if e.GoType != "" {
		types = append(types, "Go type "+e.GoType)
	}
	if e.CType != "" {
		types = append(types, "C type "+e.CType)
	}
	sep := ": "
	if len(types) > 0 {
		b.WriteString(sep)
		b.WriteString(strings.Join(types, ", "))
		sep = " - "
	}
	if e.Detail != "" {
		b.WriteString(sep)
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		fmt.Fprintf(&b, " (caused by: %v)", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// CType sets the native type name
func (b *Builder) CType(t string) *Builder {
	b.err.CType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// CategoryOf returns the category of the first *Error in err's chain.
func CategoryOf(err error) Category {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind.Category()
	}
	return CategoryOther
}

// IsDefinition reports whether err is a definition-time failure.
func IsDefinition(err error) bool {
	return CategoryOf(err) == CategoryDefinition
}

// IsBounds reports whether err is a buffer bounds failure.
func IsBounds(err error) bool {
	return CategoryOf(err) == CategoryBounds
}

// IsArgument reports whether err is an unsupported-initializer failure.
func IsArgument(err error) bool {
	return CategoryOf(err) == CategoryArgument
}

// HasKind reports whether err's chain contains an *Error of the given kind.
func HasKind(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if stderrors.As(err, &e) {
			if e.Kind == kind {
				return true
			}
			err = e.Cause
			continue
		}
		return false
	}
	return false
}

// Convenience constructors for common error patterns

// DuplicateField creates a duplicate field name error
func DuplicateField(structName, field string) *Error {
	return &Error{
		Phase:  PhaseDefine,
		Kind:   KindDuplicateField,
		Path:   []string{structName, field},
		Detail: fmt.Sprintf("duplicate field name %q", field),
	}
}

// ZeroSize creates a zero-sized field type error
func ZeroSize(path []string, typeName string) *Error {
	return &Error{
		Phase:  PhaseDefine,
		Kind:   KindZeroSize,
		Path:   path,
		CType:  typeName,
		Detail: "zero-sized type not allowed",
	}
}

// UnknownType creates an unresolvable type name error
func UnknownType(name string) *Error {
	return &Error{
		Phase:  PhaseDefine,
		Kind:   KindUnknownType,
		Detail: fmt.Sprintf("unknown type name `%s`", name),
		Value:  name,
	}
}

// Finalized creates an error for mutating a type already in use
func Finalized(structName, field string) *Error {
	return &Error{
		Phase:  PhaseDefine,
		Kind:   KindFinalized,
		Path:   []string{structName, field},
		Detail: "struct type is already in use and can no longer be modified",
	}
}

// BufferTooSmall creates a bounds error for binding a view over a short buffer
func BufferTooSmall(phase Phase, need uint64, have uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("buffer too small: need %d bytes, have %d", need, have),
		Value:  need,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, offset, size uint64, length uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("range [%d, %d) out of bounds (length %d)", offset, offset+size, length),
		Value:  offset,
	}
}

// InvalidArgument creates an invalid argument error
func InvalidArgument(phase Phase, goType, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidArgument,
		GoType: goType,
		Detail: detail,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, cType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		GoType: goType,
		CType:  cType,
	}
}

// Overflow creates an overflow error
func Overflow(phase Phase, path []string, value any, targetType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		CType:  targetType,
		Detail: fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:  value,
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, path []string, cType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Path:   path,
		CType:  cType,
		Detail: "null pointer dereference",
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// FieldUnknown creates an unknown field error
func FieldUnknown(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFieldUnknown,
		Path:   path,
		Detail: fmt.Sprintf("unknown field %q", fieldName),
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size, align uint32, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
		Cause:  cause,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// ParseFailed creates a parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}

// Load creates a backend loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}
