package xpath

import (
	"slices"

	"github.com/midbel/xpath/xml"
)

// Sequence is the result of every evaluation: flat, ordered, possibly
// heterogeneous. There is no nesting; Concat always flattens.
type Sequence []Item

func NewSequence() Sequence {
	var seq Sequence
	return seq
}

func Singleton(value any) Sequence {
	var seq Sequence
	seq.Append(createAtomic(value))
	return seq
}

func SingletonNode(node xml.Node) Sequence {
	var seq Sequence
	seq.Append(createNode(node))
	return seq
}

func (s *Sequence) First() Item {
	if s.Empty() {
		return nil
	}
	return (*s)[0]
}

func (s *Sequence) Len() int {
	return len(*s)
}

func (s *Sequence) Append(item Item) {
	*s = append(*s, item)
}

func (s *Sequence) Concat(other Sequence) {
	*s = append(*s, other...)
}

func (s *Sequence) Empty() bool {
	return len(*s) == 0
}

func (s *Sequence) Singleton() bool {
	return len(*s) == 1
}

// Nodes reports whether every item is a node, Atomics whether every
// item is atomic. Both are vacuously true on the empty sequence.
func (s *Sequence) Nodes() bool {
	for i := range *s {
		if (*s)[i].Node() == nil {
			return false
		}
	}
	return true
}

func (s *Sequence) Atomics() bool {
	for i := range *s {
		if !(*s)[i].Atomic() {
			return false
		}
	}
	return true
}

// Sorted returns the sequence in document order with duplicate nodes
// removed by identity. All items must be nodes.
func (s Sequence) Sorted() Sequence {
	var nodes []xml.Node
	for i := range s {
		nodes = append(nodes, s[i].Node())
	}
	nodes = xml.SortInDocumentOrder(nodes)
	var seq Sequence
	for i := range nodes {
		seq.Append(createNode(nodes[i]))
	}
	return seq
}

func (s Sequence) Reverse() Sequence {
	seq := slices.Clone(s)
	slices.Reverse(seq)
	return seq
}

func (s *Sequence) Strings() ([]string, error) {
	var list []string
	for i := range *s {
		str, err := itemString((*s)[i])
		if err != nil {
			return nil, err
		}
		list = append(list, str)
	}
	return list, nil
}

// EffectiveBooleanValue implements the sequence to boolean coercion of
// tests and predicates. Shapes it is undefined for raise FORG0006.
func EffectiveBooleanValue(seq Sequence) (bool, error) {
	if seq.Empty() {
		return false, nil
	}
	if seq[0].Node() != nil {
		return true, nil
	}
	if !seq.Singleton() {
		return false, Errorf(CodeBoolValue, "effective boolean value of a sequence of %d atomic items", seq.Len())
	}
	item, ok := seq[0].(atomicItem)
	if !ok {
		return false, Errorf(CodeBoolValue, "effective boolean value undefined for %T", seq[0])
	}
	switch item.kind {
	case typeUntypedAtomic, typeAnyURI:
		str, _ := item.value.(string)
		return str != "", nil
	}
	switch v := item.value.(type) {
	case string:
		return v != "", nil
	case bool:
		return v, nil
	default:
		if isNumeric(item.kind) {
			return item.True(), nil
		}
	}
	return false, Errorf(CodeBoolValue, "effective boolean value undefined for %s", item.kind)
}

// atomize reduces nodes to their typed values and flattens arrays.
// Maps and functions have no typed value.
func atomize(seq Sequence) (Sequence, error) {
	var out Sequence
	for i := range seq {
		switch item := seq[i].(type) {
		case nodeItem:
			out.Append(untypedItem(item.node.Value()))
		case atomicItem:
			out.Append(item)
		case arrayItem:
			for _, m := range item.members {
				sub, err := atomize(m)
				if err != nil {
					return nil, err
				}
				out.Concat(sub)
			}
		default:
			return nil, Errorf(CodeOperandType, "%T can not be atomized", seq[i])
		}
	}
	return out, nil
}

func atomizeSingle(seq Sequence, what string) (Item, error) {
	seq, err := atomize(seq)
	if err != nil {
		return nil, err
	}
	if seq.Empty() {
		return nil, nil
	}
	if !seq.Singleton() {
		return nil, Errorf(CodeOperandType, "%s: expected a single atomic value, got %d", what, seq.Len())
	}
	return seq[0], nil
}

func isTrue(seq Sequence) bool {
	ok, err := EffectiveBooleanValue(seq)
	return err == nil && ok
}
