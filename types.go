package xpath

import (
	"fmt"

	"github.com/midbel/xpath/xml"
)

const (
	schemaNS = "http://www.w3.org/2001/XMLSchema"
	fnNS     = "http://www.w3.org/2005/xpath-functions"
	mathNS   = "http://www.w3.org/2005/xpath-functions/math"
	mapNS    = "http://www.w3.org/2005/xpath-functions/map"
	arrayNS  = "http://www.w3.org/2005/xpath-functions/array"
	localNS  = "http://www.w3.org/2005/xquery-local-functions"
)

// AtomicType is one entry of the XDM type hierarchy. The hierarchy is
// static metadata: parent links give derivation, promote links give
// the asymmetric promotion edges used by arithmetic and function
// dispatch.
type AtomicType struct {
	local   string
	parent  *AtomicType
	promote *AtomicType
}

func (t *AtomicType) Name() xml.QName {
	return xml.ExpandedName(t.local, "xs", schemaNS)
}

func (t *AtomicType) String() string {
	return "xs:" + t.local
}

// Derives reports whether t is other or derived from it.
func (t *AtomicType) Derives(other *AtomicType) bool {
	for x := t; x != nil; x = x.parent {
		if x == other {
			return true
		}
	}
	return false
}

// Promotes reports whether a value of type t can be promoted to
// other: integer to decimal to float to double, anyURI to string and
// the duration subtypes to duration.
func (t *AtomicType) Promotes(other *AtomicType) bool {
	if t.Derives(other) {
		return true
	}
	for x := t; x != nil; {
		if x.promote == nil {
			x = x.parent
			continue
		}
		x = x.promote
		if x.Derives(other) || x == other {
			return true
		}
	}
	return false
}

func derive(local string, parent *AtomicType) *AtomicType {
	t := AtomicType{
		local:  local,
		parent: parent,
	}
	return &t
}

var (
	typeAnyAtomic     = derive("anyAtomicType", nil)
	typeUntypedAtomic = derive("untypedAtomic", typeAnyAtomic)
	typeString        = derive("string", typeAnyAtomic)
	typeBoolean       = derive("boolean", typeAnyAtomic)
	typeDecimal       = derive("decimal", typeAnyAtomic)
	typeInteger       = derive("integer", typeDecimal)
	typeFloat         = derive("float", typeAnyAtomic)
	typeDouble        = derive("double", typeAnyAtomic)
	typeDuration      = derive("duration", typeAnyAtomic)
	typeYearMonth     = derive("yearMonthDuration", typeDuration)
	typeDayTime       = derive("dayTimeDuration", typeDuration)
	typeDateTime      = derive("dateTime", typeAnyAtomic)
	typeStamp         = derive("dateTimeStamp", typeDateTime)
	typeDate          = derive("date", typeAnyAtomic)
	typeTime          = derive("time", typeAnyAtomic)
	typeGYear         = derive("gYear", typeAnyAtomic)
	typeGMonth        = derive("gMonth", typeAnyAtomic)
	typeGDay          = derive("gDay", typeAnyAtomic)
	typeGYearMonth    = derive("gYearMonth", typeAnyAtomic)
	typeGMonthDay     = derive("gMonthDay", typeAnyAtomic)
	typeAnyURI        = derive("anyURI", typeAnyAtomic)
	typeQName         = derive("QName", typeAnyAtomic)
	typeBase64Binary  = derive("base64Binary", typeAnyAtomic)
	typeHexBinary     = derive("hexBinary", typeAnyAtomic)
	typeNotation      = derive("NOTATION", typeAnyAtomic)

	typeNormalized = derive("normalizedString", typeString)
	typeToken      = derive("token", typeNormalized)
	typeLanguage   = derive("language", typeToken)
	typeNMTOKEN    = derive("NMTOKEN", typeToken)
	typeName       = derive("Name", typeToken)
	typeNCName     = derive("NCName", typeName)
	typeID         = derive("ID", typeNCName)
	typeIDREF      = derive("IDREF", typeNCName)
	typeEntity     = derive("ENTITY", typeNCName)

	typeNonPositive = derive("nonPositiveInteger", typeInteger)
	typeNegative    = derive("negativeInteger", typeNonPositive)
	typeLong        = derive("long", typeInteger)
	typeInt         = derive("int", typeLong)
	typeShort       = derive("short", typeInt)
	typeByte        = derive("byte", typeShort)
	typeNonNegative = derive("nonNegativeInteger", typeInteger)
	typeUnsignedLong  = derive("unsignedLong", typeNonNegative)
	typeUnsignedInt   = derive("unsignedInt", typeUnsignedLong)
	typeUnsignedShort = derive("unsignedShort", typeUnsignedInt)
	typeUnsignedByte  = derive("unsignedByte", typeUnsignedShort)
	typePositive      = derive("positiveInteger", typeNonNegative)
)

var atomicTypes = make(map[string]*AtomicType)

func init() {
	typeInteger.promote = typeDecimal
	typeDecimal.promote = typeFloat
	typeFloat.promote = typeDouble
	typeAnyURI.promote = typeString

	all := []*AtomicType{
		typeAnyAtomic, typeUntypedAtomic, typeString, typeBoolean,
		typeDecimal, typeInteger, typeFloat, typeDouble,
		typeDuration, typeYearMonth, typeDayTime,
		typeDateTime, typeStamp, typeDate, typeTime,
		typeGYear, typeGMonth, typeGDay, typeGYearMonth, typeGMonthDay,
		typeAnyURI, typeQName, typeBase64Binary, typeHexBinary, typeNotation,
		typeNormalized, typeToken, typeLanguage, typeNMTOKEN, typeName,
		typeNCName, typeID, typeIDREF, typeEntity,
		typeNonPositive, typeNegative, typeLong, typeInt, typeShort, typeByte,
		typeNonNegative, typeUnsignedLong, typeUnsignedInt, typeUnsignedShort,
		typeUnsignedByte, typePositive,
	}
	for _, t := range all {
		atomicTypes[t.local] = t
	}
}

// TypeByName resolves an atomic type from its qualified name. Only the
// xs namespace carries atomic types.
func TypeByName(name xml.QName) (*AtomicType, bool) {
	if name.Uri != "" && name.Uri != schemaNS {
		return nil, false
	}
	if name.Space != "" && name.Space != "xs" && name.Uri == "" {
		return nil, false
	}
	t, ok := atomicTypes[name.Name]
	return t, ok
}

func isNumeric(t *AtomicType) bool {
	return t.Derives(typeDecimal) || t.Derives(typeFloat) || t.Derives(typeDouble)
}

func isDuration(t *AtomicType) bool {
	return t.Derives(typeDuration)
}

func isTemporal(t *AtomicType) bool {
	switch {
	case t.Derives(typeDateTime), t.Derives(typeDate), t.Derives(typeTime):
		return true
	case t.Derives(typeGYear), t.Derives(typeGMonth), t.Derives(typeGDay):
		return true
	case t.Derives(typeGYearMonth), t.Derives(typeGMonthDay):
		return true
	default:
		return false
	}
}

type Occurrence int8

const (
	OccOne Occurrence = iota
	OccOptional
	OccZeroOrMore
	OccOneOrMore
)

func (o Occurrence) String() string {
	switch o {
	case OccOptional:
		return "?"
	case OccZeroOrMore:
		return "*"
	case OccOneOrMore:
		return "+"
	default:
		return ""
	}
}

// ItemType is the item part of a sequence type.
type ItemType interface {
	matches(Item) bool
	String() string
}

// SequenceType pairs an item type with an occurrence indicator. A nil
// item type denotes empty-sequence().
type SequenceType struct {
	item ItemType
	occ  Occurrence
}

func (s SequenceType) String() string {
	if s.item == nil {
		return "empty-sequence()"
	}
	return s.item.String() + s.occ.String()
}

// Matches is the subtype-of decision procedure driving instance of,
// treat as and function argument checking.
func (s SequenceType) Matches(seq Sequence) bool {
	if s.item == nil {
		return seq.Empty()
	}
	switch s.occ {
	case OccOne:
		if seq.Len() != 1 {
			return false
		}
	case OccOptional:
		if seq.Len() > 1 {
			return false
		}
	case OccOneOrMore:
		if seq.Empty() {
			return false
		}
	}
	for i := range seq {
		if !s.item.matches(seq[i]) {
			return false
		}
	}
	return true
}

type anyItemType struct{}

func (anyItemType) matches(_ Item) bool {
	return true
}

func (anyItemType) String() string {
	return "item()"
}

type atomicItemType struct {
	kind *AtomicType
}

func (t atomicItemType) matches(item Item) bool {
	a, ok := item.(atomicItem)
	if !ok {
		return false
	}
	return a.kind.Derives(t.kind)
}

func (t atomicItemType) String() string {
	return t.kind.String()
}

// nodeItemType is the kind test form of an item type: a node kind,
// optionally a required name.
type nodeItemType struct {
	kind    xml.NodeType
	name    xml.QName
	hasName bool
	target  string
}

func (t nodeItemType) matches(item Item) bool {
	node := item.Node()
	if node == nil {
		return false
	}
	if node.Type()&t.kind == 0 {
		return false
	}
	if t.target != "" && node.LocalName() != t.target {
		return false
	}
	if t.hasName {
		if t.name.Name != "*" && node.LocalName() != t.name.Name {
			return false
		}
		if t.name.Uri != node.Namespace() {
			return false
		}
	}
	return true
}

func (t nodeItemType) String() string {
	var name string
	if t.hasName {
		name = t.name.QualifiedName()
	}
	if t.target != "" {
		name = t.target
	}
	return fmt.Sprintf("%s(%s)", t.kind, name)
}

type funcItemType struct {
	arity int // negative for function(*)
}

func (t funcItemType) matches(item Item) bool {
	fn, ok := item.(funcItem)
	if !ok {
		return false
	}
	return t.arity < 0 || fn.arity == t.arity
}

func (t funcItemType) String() string {
	return "function(*)"
}

type mapItemType struct{}

func (mapItemType) matches(item Item) bool {
	_, ok := item.(mapItem)
	return ok
}

func (mapItemType) String() string {
	return "map(*)"
}

type arrayItemType struct{}

func (arrayItemType) matches(item Item) bool {
	_, ok := item.(arrayItem)
	return ok
}

func (arrayItemType) String() string {
	return "array(*)"
}
