package arxml

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ByteOrder is the BYTE-ORDER of a base type.
type ByteOrder string

const (
	ByteOrderMostSignificantFirst ByteOrder = "MOST-SIGNIFICANT-BYTE-FIRST"
	ByteOrderMostSignificantLast  ByteOrder = "MOST-SIGNIFICANT-BYTE-LAST"
	ByteOrderOpaque               ByteOrder = "OPAQUE"
)

// ParseByteOrder accepts BIG_ENDIAN, LITTLE_ENDIAN, OPAQUE or the ARXML
// spelling of each.
func ParseByteOrder(s string) (ByteOrder, error) {
	switch s {
	case "BIG_ENDIAN", string(ByteOrderMostSignificantFirst):
		return ByteOrderMostSignificantFirst, nil
	case "LITTLE_ENDIAN", string(ByteOrderMostSignificantLast):
		return ByteOrderMostSignificantLast, nil
	case "OPAQUE":
		return ByteOrderOpaque, nil
	}
	return "", fmt.Errorf("%w: byte order %q", ErrInvalidValue, s)
}

// SwBaseType is a platform base type such as uint8.
type SwBaseType struct {
	base
	Category          string
	Size              *int
	MaxSize           *int
	Encoding          string
	Alignment         *int
	ByteOrder         ByteOrder
	NativeDeclaration string
}

// NewSwBaseType returns a FIXED_LENGTH base type.
func NewSwBaseType(name string) *SwBaseType {
	return &SwBaseType{base: base{name: name}, Category: "FIXED_LENGTH"}
}

func (t *SwBaseType) Kind() Kind { return KindSwBaseType }

func (t *SwBaseType) validate() error {
	for _, v := range []*int{t.Size, t.MaxSize, t.Alignment} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: base type %s: negative size", ErrInvalidValue, t.name)
		}
	}
	return nil
}

// Implementation data type categories.
const (
	CategoryValue         = "VALUE"
	CategoryTypeReference = "TYPE_REFERENCE"
	CategoryArray         = "ARRAY"
	CategoryStructure     = "STRUCTURE"
)

// ImplementationDataType is an IMPLEMENTATION-DATA-TYPE.
type ImplementationDataType struct {
	base
	Category    string
	BaseTypeRef Ref
	TypeRef     Ref
}

// NewImplementationDataType returns a type of the given category.
func NewImplementationDataType(name, category string) *ImplementationDataType {
	if category == "" {
		category = CategoryValue
	}
	return &ImplementationDataType{base: base{name: name}, Category: category}
}

func (t *ImplementationDataType) Kind() Kind { return KindImplementationDataType }

func (t *ImplementationDataType) validate() error {
	switch t.Category {
	case CategoryValue, CategoryArray, CategoryStructure:
		if !t.TypeRef.IsZero() {
			return fmt.Errorf("%w: %s: category %s cannot reference another implementation type", ErrInvalidStructure, t.name, t.Category)
		}
	case CategoryTypeReference:
		if t.TypeRef.IsZero() {
			return fmt.Errorf("%w: %s: category TYPE_REFERENCE needs a referenced type", ErrInvalidStructure, t.name)
		}
	default:
		return fmt.Errorf("%w: category %q", ErrInvalidValue, t.Category)
	}
	return nil
}

// Unit is a UNIT with its SI conversion.
type Unit struct {
	base
	DisplayName          string
	Factor               *float64
	Offset               *float64
	PhysicalDimensionRef Ref
}

// NewUnit returns an empty unit.
func NewUnit(name string) *Unit {
	return &Unit{base: base{name: name}}
}

func (u *Unit) Kind() Kind { return KindUnit }

// ValueKind discriminates ValueSpec.
type ValueKind int

const (
	ValueNumerical ValueKind = iota
	ValueText
	ValueArray
	ValueConstantReference
)

// ValueSpec is a value specification: numerical, text, array or a reference
// to a constant.
type ValueSpec struct {
	Kind        ValueKind
	Value       string
	Elements    []*ValueSpec
	ConstantRef Ref
}

// MakeValue converts a JSON-decoded value into a ValueSpec. Numbers and
// booleans become numerical values, strings text values, arrays array values.
func MakeValue(v any) (*ValueSpec, error) {
	switch x := v.(type) {
	case float64:
		return &ValueSpec{Kind: ValueNumerical, Value: formatNumber(x)}, nil
	case int:
		return &ValueSpec{Kind: ValueNumerical, Value: strconv.Itoa(x)}, nil
	case int64:
		return &ValueSpec{Kind: ValueNumerical, Value: strconv.FormatInt(x, 10)}, nil
	case json.Number:
		return &ValueSpec{Kind: ValueNumerical, Value: x.String()}, nil
	case bool:
		if x {
			return &ValueSpec{Kind: ValueNumerical, Value: "1"}, nil
		}
		return &ValueSpec{Kind: ValueNumerical, Value: "0"}, nil
	case string:
		return &ValueSpec{Kind: ValueText, Value: x}, nil
	case []any:
		out := &ValueSpec{Kind: ValueArray}
		for i, item := range x {
			el, err := MakeValue(item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out.Elements = append(out.Elements, el)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unsupported constant value of type %T", ErrInvalidValue, v)
}

// ConstantValue returns a value specification referring to c.
func ConstantValue(c *ConstantSpecification) *ValueSpec {
	return &ValueSpec{Kind: ValueConstantReference, ConstantRef: RefTo(c)}
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ConstantSpecification is a named constant value.
type ConstantSpecification struct {
	base
	Value *ValueSpec
}

// NewConstant builds a constant from a JSON-decoded value.
func NewConstant(name string, value any) (*ConstantSpecification, error) {
	spec, err := MakeValue(value)
	if err != nil {
		return nil, err
	}
	return &ConstantSpecification{base: base{name: name}, Value: spec}, nil
}

func (c *ConstantSpecification) Kind() Kind { return KindConstantSpecification }
