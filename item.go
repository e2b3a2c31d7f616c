package xpath

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/midbel/xpath/xml"
	"github.com/shopspring/decimal"
)

// Item is one member of a sequence: a node, an atomic value, or (3.1)
// a function, map or array.
type Item interface {
	Node() xml.Node
	Value() any
	True() bool
	Atomic() bool
}

type atomicItem struct {
	value any
	kind  *AtomicType
}

func createAtomic(value any) Item {
	switch v := value.(type) {
	case Item:
		return v
	case string:
		return atomicItem{value: v, kind: typeString}
	case bool:
		return atomicItem{value: v, kind: typeBoolean}
	case int:
		return atomicItem{value: int64(v), kind: typeInteger}
	case int64:
		return atomicItem{value: v, kind: typeInteger}
	case decimal.Decimal:
		return atomicItem{value: v, kind: typeDecimal}
	case float32:
		return atomicItem{value: v, kind: typeFloat}
	case float64:
		return atomicItem{value: v, kind: typeDouble}
	case Moment:
		return atomicItem{value: v, kind: typeDateTime}
	case Duration:
		return atomicItem{value: v, kind: typeDuration}
	case xml.QName:
		return atomicItem{value: v, kind: typeQName}
	case []byte:
		return atomicItem{value: v, kind: typeHexBinary}
	case xml.Node:
		return createNode(v)
	default:
		return atomicItem{value: v, kind: typeAnyAtomic}
	}
}

func createTyped(value any, kind *AtomicType) Item {
	return atomicItem{
		value: value,
		kind:  kind,
	}
}

func untypedItem(str string) Item {
	return atomicItem{
		value: str,
		kind:  typeUntypedAtomic,
	}
}

func (i atomicItem) Node() xml.Node {
	return nil
}

func (i atomicItem) Value() any {
	return i.value
}

func (i atomicItem) Atomic() bool {
	return true
}

func (i atomicItem) Type() *AtomicType {
	return i.kind
}

func (i atomicItem) True() bool {
	switch v := i.value.(type) {
	case string:
		return v != ""
	case bool:
		return v
	case int64:
		return v != 0
	case decimal.Decimal:
		return !v.IsZero()
	case float32:
		return v != 0 && v == v
	case float64:
		return v != 0 && v == v
	default:
		return false
	}
}

type nodeItem struct {
	node xml.Node
}

func createNode(node xml.Node) Item {
	return nodeItem{
		node: node,
	}
}

func (i nodeItem) Node() xml.Node {
	return i.node
}

func (i nodeItem) Value() any {
	return i.node.Value()
}

func (i nodeItem) Atomic() bool {
	return false
}

func (i nodeItem) True() bool {
	return true
}

// funcItem is a function treated as a value: a named builtin bound by
// name#arity, or an inline function with its closure.
type funcItem struct {
	name  xml.QName
	arity int
	call  func(Context, []Sequence) (Sequence, error)
}

func (i funcItem) Node() xml.Node {
	return nil
}

func (i funcItem) Value() any {
	return i
}

func (i funcItem) Atomic() bool {
	return false
}

func (i funcItem) True() bool {
	return false
}

func (i funcItem) String() string {
	name := i.name.QualifiedName()
	if name == "" {
		name = "(anonymous)"
	}
	return fmt.Sprintf("%s#%d", name, i.arity)
}

type mapPair struct {
	key   Item
	value Sequence
}

// mapItem is an immutable map from atomic keys to sequences. Keys that
// compare equal under the eq of their common type collide; insertion
// order is retained for iteration.
type mapItem struct {
	pairs []mapPair
	index map[string]int
}

func newMap(pairs []mapPair) (Item, error) {
	m := mapItem{
		index: make(map[string]int, len(pairs)),
	}
	for _, p := range pairs {
		key, err := mapKey(p.key)
		if err != nil {
			return nil, err
		}
		if at, ok := m.index[key]; ok {
			m.pairs[at] = p
			continue
		}
		m.index[key] = len(m.pairs)
		m.pairs = append(m.pairs, p)
	}
	return m, nil
}

func (i mapItem) get(key Item) (Sequence, bool) {
	k, err := mapKey(key)
	if err != nil {
		return nil, false
	}
	at, ok := i.index[k]
	if !ok {
		return nil, false
	}
	return i.pairs[at].value, true
}

func (i mapItem) put(key Item, value Sequence) (Item, error) {
	pairs := slices.Clone(i.pairs)
	pairs = append(pairs, mapPair{key: key, value: value})
	return newMap(pairs)
}

func (i mapItem) remove(key Item) (Item, error) {
	k, err := mapKey(key)
	if err != nil {
		return nil, err
	}
	at, ok := i.index[k]
	if !ok {
		return i, nil
	}
	pairs := slices.Clone(i.pairs)
	pairs = slices.Delete(pairs, at, at+1)
	return newMap(pairs)
}

func (i mapItem) Node() xml.Node {
	return nil
}

func (i mapItem) Value() any {
	return i
}

func (i mapItem) Atomic() bool {
	return false
}

func (i mapItem) True() bool {
	return false
}

// mapKey normalizes an atomic key so that values equal under eq get
// the same slot: all numerics collapse to their decimal value, 1 and
// 1.0 collide.
func mapKey(item Item) (string, error) {
	a, ok := item.(atomicItem)
	if !ok {
		return "", Errorf(CodeOperandType, "map key must be an atomic value")
	}
	switch v := a.value.(type) {
	case string:
		return "s:" + v, nil
	case bool:
		return "b:" + strconv.FormatBool(v), nil
	case int64:
		return "n:" + strconv.FormatInt(v, 10), nil
	case decimal.Decimal:
		return "n:" + v.String(), nil
	case float32:
		return floatKey(float64(v)), nil
	case float64:
		return floatKey(v), nil
	case Moment:
		return "t:" + v.UTC().Format("2006-01-02T15:04:05.999999999"), nil
	case Duration:
		return fmt.Sprintf("d:%d/%g", v.Months, v.Secs), nil
	case xml.QName:
		return "q:" + v.ExpandedName(), nil
	default:
		return "", Errorf(CodeOperandType, "%T: value can not be used as map key", a.value)
	}
}

func floatKey(v float64) string {
	if v != v {
		return "n:NaN"
	}
	d := decimal.NewFromFloat(v)
	return "n:" + d.String()
}

// arrayItem is an immutable 1-indexed array; members are sequences,
// not flattened.
type arrayItem struct {
	members []Sequence
}

func newArray(members []Sequence) Item {
	return arrayItem{
		members: members,
	}
}

func (i arrayItem) get(at int) (Sequence, error) {
	if at < 1 || at > len(i.members) {
		return nil, Errorf(CodeNoEntry, "array index %d out of bounds (1..%d)", at, len(i.members))
	}
	return i.members[at-1], nil
}

func (i arrayItem) Node() xml.Node {
	return nil
}

func (i arrayItem) Value() any {
	return i
}

func (i arrayItem) Atomic() bool {
	return false
}

func (i arrayItem) True() bool {
	return false
}

// itemType gives the dynamic type used during promotion and dispatch.
func itemType(item Item) *AtomicType {
	switch i := item.(type) {
	case atomicItem:
		return i.kind
	case nodeItem:
		return typeUntypedAtomic
	default:
		return nil
	}
}

func itemString(item Item) (string, error) {
	switch i := item.(type) {
	case nodeItem:
		return i.node.Value(), nil
	case atomicItem:
		return atomicString(i)
	case funcItem:
		return "", Errorf(CodeOperandType, "function item has no string value")
	case mapItem, arrayItem:
		return "", Errorf(CodeOperandType, "%T has no string value", item)
	default:
		return fmt.Sprint(item.Value()), nil
	}
}

func itemsEqual(left, right Item) bool {
	k1, err1 := mapKey(left)
	k2, err2 := mapKey(right)
	if err1 != nil || err2 != nil {
		return false
	}
	return k1 == k2
}

func formatItem(item Item) string {
	str, err := itemString(item)
	if err != nil {
		return fmt.Sprintf("%T", item)
	}
	return str
}

func joinItems(items []Item, sep string) string {
	var parts []string
	for i := range items {
		parts = append(parts, formatItem(items[i]))
	}
	return strings.Join(parts, sep)
}
