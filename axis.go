package xpath

import (
	"slices"

	"github.com/midbel/xpath/xml"
)

const (
	childAxis          = "child"
	descendantAxis     = "descendant"
	descendantSelfAxis = "descendant-or-self"
	selfAxis           = "self"
	parentAxis         = "parent"
	ancestorAxis       = "ancestor"
	ancestorSelfAxis   = "ancestor-or-self"
	nextSiblingAxis    = "following-sibling"
	prevSiblingAxis    = "preceding-sibling"
	nextAxis           = "following"
	prevAxis           = "preceding"
	attrAxis           = "attribute"
	namespaceAxis      = "namespace"
)

func isAxis(name string) bool {
	switch name {
	case childAxis, descendantAxis, descendantSelfAxis, selfAxis,
		parentAxis, ancestorAxis, ancestorSelfAxis,
		nextSiblingAxis, prevSiblingAxis, nextAxis, prevAxis,
		attrAxis, namespaceAxis:
		return true
	default:
		return false
	}
}

// principalKind gives the node kind a bare name test selects on the
// axis: attribute and namespace have their own, every other axis
// selects elements.
func principalKind(axis string) xml.NodeType {
	switch axis {
	case attrAxis:
		return xml.TypeAttribute
	case namespaceAxis:
		return xml.TypeNamespace
	default:
		return xml.TypeElement
	}
}

// axisNodes walks one axis from node. Forward axes run in document
// order, reverse axes nearest first, so that positional predicates
// count in axis direction.
func axisNodes(axis string, node xml.Node) ([]xml.Node, error) {
	switch axis {
	case selfAxis:
		return []xml.Node{node}, nil
	case childAxis:
		return children(node), nil
	case descendantAxis:
		return descendants(node), nil
	case descendantSelfAxis:
		return append([]xml.Node{node}, descendants(node)...), nil
	case parentAxis:
		if p := node.Parent(); p != nil {
			return []xml.Node{p}, nil
		}
		return nil, nil
	case ancestorAxis:
		return ancestors(node), nil
	case ancestorSelfAxis:
		return append([]xml.Node{node}, ancestors(node)...), nil
	case nextSiblingAxis:
		after, _ := siblings(node)
		return after, nil
	case prevSiblingAxis:
		_, before := siblings(node)
		return before, nil
	case nextAxis:
		return following(node), nil
	case prevAxis:
		return preceding(node), nil
	case attrAxis:
		return attributes(node), nil
	case namespaceAxis:
		return namespaces(node), nil
	default:
		return nil, Errorf(CodeSyntax, "%s: unknown axis", axis)
	}
}

func children(node xml.Node) []xml.Node {
	switch n := node.(type) {
	case *xml.Document:
		return slices.Clone(n.Nodes)
	case *xml.Element:
		return slices.Clone(n.Nodes)
	default:
		return nil
	}
}

func descendants(node xml.Node) []xml.Node {
	var out []xml.Node
	for _, c := range children(node) {
		out = append(out, c)
		out = append(out, descendants(c)...)
	}
	return out
}

func ancestors(node xml.Node) []xml.Node {
	var out []xml.Node
	for p := node.Parent(); p != nil; p = p.Parent() {
		out = append(out, p)
	}
	return out
}

// siblings splits the siblings of node around it: the ones after in
// document order, the ones before nearest first. Attributes and
// namespace nodes have no siblings.
func siblings(node xml.Node) ([]xml.Node, []xml.Node) {
	switch node.Type() {
	case xml.TypeAttribute, xml.TypeNamespace:
		return nil, nil
	}
	parent := node.Parent()
	if parent == nil {
		return nil, nil
	}
	var (
		all    = children(parent)
		at     = node.Position()
		after  []xml.Node
		before []xml.Node
	)
	if at < 0 || at >= len(all) || all[at].Identity() != node.Identity() {
		return nil, nil
	}
	after = slices.Clone(all[at+1:])
	for i := at - 1; i >= 0; i-- {
		before = append(before, all[i])
	}
	return after, before
}

func following(node xml.Node) []xml.Node {
	var out []xml.Node
	for n := node; n != nil; n = n.Parent() {
		after, _ := siblings(n)
		for _, s := range after {
			out = append(out, s)
			out = append(out, descendants(s)...)
		}
	}
	return out
}

// preceding returns the nodes entirely before node, ancestors
// excluded, in reverse document order.
func preceding(node xml.Node) []xml.Node {
	var out []xml.Node
	for n := node; n != nil; n = n.Parent() {
		_, before := siblings(n)
		for _, s := range before {
			sub := descendants(s)
			for i := len(sub) - 1; i >= 0; i-- {
				out = append(out, sub[i])
			}
			out = append(out, s)
		}
	}
	return out
}

func attributes(node xml.Node) []xml.Node {
	el, ok := node.(*xml.Element)
	if !ok {
		return nil
	}
	var out []xml.Node
	for _, a := range el.Attributes() {
		out = append(out, a)
	}
	return out
}

// namespaces synthesizes the namespace nodes of an element from its
// in scope declarations.
func namespaces(node xml.Node) []xml.Node {
	el, ok := node.(*xml.Element)
	if !ok {
		return nil
	}
	var out []xml.Node
	for i, ns := range el.InScopeNamespaces() {
		out = append(out, xml.NewNamespace(ns.Prefix, ns.Uri, el, i))
	}
	return out
}
