package xpath

import (
	"github.com/midbel/xpath/xml"
)

// Schema is the optional type provider consulted during static
// analysis: it maps element and attribute names to their declared
// atomic types and answers derivation questions. Engines running
// without a schema see every node as untyped.
type Schema interface {
	ElementType(xml.QName) (*AtomicType, bool)
	AttributeType(xml.QName) (*AtomicType, bool)
	IsDerived(sub, sup xml.QName) bool
}

// untypedSchema is the default provider: everything is untyped and
// only reflexive derivation holds.
type untypedSchema struct{}

func (untypedSchema) ElementType(_ xml.QName) (*AtomicType, bool) {
	return typeUntypedAtomic, false
}

func (untypedSchema) AttributeType(_ xml.QName) (*AtomicType, bool) {
	return typeUntypedAtomic, false
}

func (untypedSchema) IsDerived(sub, sup xml.QName) bool {
	return sub.Equal(sup)
}

// TypeSchema is a map backed Schema for callers that know the types
// of their documents without running full XSD validation.
type TypeSchema struct {
	Elements   map[string]*AtomicType
	Attributes map[string]*AtomicType
}

func (s *TypeSchema) ElementType(name xml.QName) (*AtomicType, bool) {
	t, ok := s.Elements[name.Name]
	if !ok {
		return typeUntypedAtomic, false
	}
	return t, true
}

func (s *TypeSchema) AttributeType(name xml.QName) (*AtomicType, bool) {
	t, ok := s.Attributes[name.Name]
	if !ok {
		return typeUntypedAtomic, false
	}
	return t, true
}

func (s *TypeSchema) IsDerived(sub, sup xml.QName) bool {
	t1, ok1 := TypeByName(sub)
	t2, ok2 := TypeByName(sup)
	if ok1 && ok2 {
		return t1.Derives(t2)
	}
	return sub.Equal(sup)
}
