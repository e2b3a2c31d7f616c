package xml

import (
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
)

// Node is the tree adapter consumed by the xpath engine. Value returns
// the XDM string value of the node, Identity its reference identity
// within the process.
type Node interface {
	Type() NodeType
	LocalName() string
	QualifiedName() string
	Namespace() string
	Leaf() bool
	Position() int
	Parent() Node
	Value() string
	Identity() string

	setParent(Node)
	setPosition(int)
	path() []int
}

var serial atomic.Int64

type DocType struct {
	Name     string
	PublicID string
	SystemID string
}

type Document struct {
	*DocType
	Version    string
	Encoding   string
	Standalone string
	BaseURI    string

	Nodes []Node

	order int64
}

func NewDocument(root Node) *Document {
	doc := EmptyDocument()
	doc.Append(root)
	return doc
}

func EmptyDocument() *Document {
	doc := Document{
		Version:  SupportedVersion,
		Encoding: SupportedEncoding,
		order:    serial.Add(1),
	}
	return &doc
}

func (d *Document) Root() Node {
	for i := range d.Nodes {
		if d.Nodes[i].Type() == TypeElement {
			return d.Nodes[i]
		}
	}
	return nil
}

func (d *Document) Append(node Node) {
	node.setParent(d)
	node.setPosition(len(d.Nodes))
	d.Nodes = append(d.Nodes, node)
}

func (d *Document) Type() NodeType {
	return TypeDocument
}

func (d *Document) LocalName() string {
	return ""
}

func (d *Document) QualifiedName() string {
	return ""
}

func (d *Document) Namespace() string {
	return ""
}

func (d *Document) Leaf() bool {
	return false
}

func (d *Document) Position() int {
	return 0
}

func (d *Document) Parent() Node {
	return nil
}

func (d *Document) Value() string {
	var str strings.Builder
	for i := range d.Nodes {
		writeTextValue(&str, d.Nodes[i])
	}
	return str.String()
}

func (d *Document) Identity() string {
	return fmt.Sprintf("doc:%p", d)
}

func (d *Document) path() []int {
	return []int{int(d.order)}
}

func (d *Document) setParent(_ Node)  {}
func (d *Document) setPosition(_ int) {}

type Element struct {
	QName
	Attrs []*Attribute
	Nodes []Node

	parent   Node
	position int
}

func NewElement(name QName) *Element {
	return &Element{
		QName: name,
	}
}

func (e *Element) Append(node Node) {
	if a, ok := node.(*Attribute); ok {
		e.SetAttribute(a)
		return
	}
	node.setParent(e)
	node.setPosition(len(e.Nodes))
	e.Nodes = append(e.Nodes, node)
}

func (e *Element) SetAttribute(attr *Attribute) {
	attr.parent = e
	ix := slices.IndexFunc(e.Attrs, func(a *Attribute) bool {
		return a.QName.Equal(attr.QName)
	})
	if ix < 0 {
		attr.position = len(e.Attrs)
		e.Attrs = append(e.Attrs, attr)
	} else {
		attr.position = ix
		e.Attrs[ix] = attr
	}
}

func (e *Element) GetAttribute(name string) (*Attribute, bool) {
	ix := slices.IndexFunc(e.Attrs, func(a *Attribute) bool {
		return a.QualifiedName() == name || a.Name == name
	})
	if ix < 0 {
		return nil, false
	}
	return e.Attrs[ix], true
}

// Attributes returns the regular attributes, namespace declarations
// excluded.
func (e *Element) Attributes() []*Attribute {
	var as []*Attribute
	for _, a := range e.Attrs {
		if a.NamespaceDecl() {
			continue
		}
		as = append(as, a)
	}
	return as
}

// Namespaces returns the namespaces declared on this element only. Use
// InScopeNamespaces for the inherited set.
func (e *Element) Namespaces() []NS {
	var ns []NS
	for _, a := range e.Attrs {
		if !a.NamespaceDecl() {
			continue
		}
		n := NS{
			Prefix: a.Name,
			Uri:    a.Datum,
		}
		if a.Space == "" {
			n.Prefix = ""
		}
		ns = append(ns, n)
	}
	return ns
}

func (e *Element) InScopeNamespaces() []NS {
	var (
		list []NS
		seen = make(map[string]struct{})
	)
	for n := Node(e); n != nil; n = n.Parent() {
		el, ok := n.(*Element)
		if !ok {
			break
		}
		for _, ns := range el.Namespaces() {
			if _, ok := seen[ns.Prefix]; ok {
				continue
			}
			seen[ns.Prefix] = struct{}{}
			list = append(list, ns)
		}
	}
	if _, ok := seen["xml"]; !ok {
		list = append(list, NS{Prefix: "xml", Uri: XmlNS})
	}
	return list
}

func (e *Element) Find(name string) Node {
	ix := slices.IndexFunc(e.Nodes, func(n Node) bool {
		return n.LocalName() == name
	})
	if ix < 0 {
		return nil
	}
	return e.Nodes[ix]
}

func (e *Element) FindAll(name string) []Node {
	var nodes []Node
	for i := range e.Nodes {
		if e.Nodes[i].LocalName() == name {
			nodes = append(nodes, e.Nodes[i])
		}
	}
	return nodes
}

func (e *Element) Root() bool {
	return e.parent == nil || e.parent.Type() == TypeDocument
}

func (e *Element) Empty() bool {
	return len(e.Nodes) == 0
}

func (e *Element) Len() int {
	return len(e.Nodes)
}

func (e *Element) Type() NodeType {
	return TypeElement
}

func (e *Element) Namespace() string {
	return e.Uri
}

func (e *Element) Leaf() bool {
	for i := range e.Nodes {
		if e.Nodes[i].Type() == TypeElement {
			return false
		}
	}
	return true
}

func (e *Element) Position() int {
	return e.position
}

func (e *Element) Parent() Node {
	return e.parent
}

func (e *Element) Value() string {
	var str strings.Builder
	writeTextValue(&str, e)
	return str.String()
}

func (e *Element) Identity() string {
	return fmt.Sprintf("elem:%p", e)
}

func (e *Element) path() []int {
	if e.parent == nil {
		return []int{0, e.position}
	}
	return append(e.parent.path(), e.position)
}

func (e *Element) setParent(parent Node) {
	e.parent = parent
}

func (e *Element) setPosition(pos int) {
	e.position = pos
}

// offsets keeping attributes and namespace nodes ordered after their
// element but before its children
const (
	nsOrder   = -1 << 21
	attrOrder = -1 << 20
)

type Attribute struct {
	QName
	Datum string

	parent   Node
	position int
}

func NewAttribute(name QName, value string) *Attribute {
	return &Attribute{
		QName: name,
		Datum: value,
	}
}

func (a *Attribute) NamespaceDecl() bool {
	return a.Space == "xmlns" || (a.Space == "" && a.Name == "xmlns")
}

func (a *Attribute) Type() NodeType {
	return TypeAttribute
}

func (a *Attribute) Namespace() string {
	return a.Uri
}

func (a *Attribute) Leaf() bool {
	return true
}

func (a *Attribute) Position() int {
	return a.position
}

func (a *Attribute) Parent() Node {
	return a.parent
}

func (a *Attribute) Value() string {
	return a.Datum
}

func (a *Attribute) Identity() string {
	return fmt.Sprintf("attr:%p", a)
}

func (a *Attribute) path() []int {
	if a.parent == nil {
		return []int{0, attrOrder + a.position}
	}
	return append(a.parent.path(), attrOrder+a.position)
}

func (a *Attribute) setParent(parent Node) {
	a.parent = parent
}

func (a *Attribute) setPosition(pos int) {
	a.position = pos
}

type Text struct {
	Content string

	parent   Node
	position int
}

func NewText(text string) *Text {
	return &Text{
		Content: text,
	}
}

func (t *Text) Type() NodeType {
	return TypeText
}

func (t *Text) LocalName() string {
	return ""
}

func (t *Text) QualifiedName() string {
	return ""
}

func (t *Text) Namespace() string {
	return ""
}

func (t *Text) Leaf() bool {
	return true
}

func (t *Text) Position() int {
	return t.position
}

func (t *Text) Parent() Node {
	return t.parent
}

func (t *Text) Value() string {
	return t.Content
}

func (t *Text) Identity() string {
	return fmt.Sprintf("text:%p", t)
}

func (t *Text) path() []int {
	if t.parent == nil {
		return []int{0, t.position}
	}
	return append(t.parent.path(), t.position)
}

func (t *Text) setParent(parent Node) {
	t.parent = parent
}

func (t *Text) setPosition(pos int) {
	t.position = pos
}

type Comment struct {
	Content string

	parent   Node
	position int
}

func NewComment(comment string) *Comment {
	return &Comment{
		Content: comment,
	}
}

func (c *Comment) Type() NodeType {
	return TypeComment
}

func (c *Comment) LocalName() string {
	return ""
}

func (c *Comment) QualifiedName() string {
	return ""
}

func (c *Comment) Namespace() string {
	return ""
}

func (c *Comment) Leaf() bool {
	return true
}

func (c *Comment) Position() int {
	return c.position
}

func (c *Comment) Parent() Node {
	return c.parent
}

func (c *Comment) Value() string {
	return c.Content
}

func (c *Comment) Identity() string {
	return fmt.Sprintf("comment:%p", c)
}

func (c *Comment) path() []int {
	if c.parent == nil {
		return []int{0, c.position}
	}
	return append(c.parent.path(), c.position)
}

func (c *Comment) setParent(parent Node) {
	c.parent = parent
}

func (c *Comment) setPosition(pos int) {
	c.position = pos
}

type Instruction struct {
	Target  string
	Content string

	parent   Node
	position int
}

func NewInstruction(target, content string) *Instruction {
	return &Instruction{
		Target:  target,
		Content: content,
	}
}

func (i *Instruction) Type() NodeType {
	return TypeInstruction
}

func (i *Instruction) LocalName() string {
	return i.Target
}

func (i *Instruction) QualifiedName() string {
	return i.Target
}

func (i *Instruction) Namespace() string {
	return ""
}

func (i *Instruction) Leaf() bool {
	return true
}

func (i *Instruction) Position() int {
	return i.position
}

func (i *Instruction) Parent() Node {
	return i.parent
}

func (i *Instruction) Value() string {
	return i.Content
}

func (i *Instruction) Identity() string {
	return fmt.Sprintf("pi:%p", i)
}

func (i *Instruction) path() []int {
	if i.parent == nil {
		return []int{0, i.position}
	}
	return append(i.parent.path(), i.position)
}

func (i *Instruction) setParent(parent Node) {
	i.parent = parent
}

func (i *Instruction) setPosition(pos int) {
	i.position = pos
}

// Namespace is the namespace node kind. Instances are synthesized on
// demand when the namespace axis is walked.
type Namespace struct {
	Prefix string
	Uri    string

	parent   Node
	position int
}

func NewNamespace(prefix, uri string, parent Node, pos int) *Namespace {
	return &Namespace{
		Prefix:   prefix,
		Uri:      uri,
		parent:   parent,
		position: pos,
	}
}

func (n *Namespace) Type() NodeType {
	return TypeNamespace
}

func (n *Namespace) LocalName() string {
	return n.Prefix
}

func (n *Namespace) QualifiedName() string {
	return n.Prefix
}

func (n *Namespace) Namespace() string {
	return ""
}

func (n *Namespace) Leaf() bool {
	return true
}

func (n *Namespace) Position() int {
	return n.position
}

func (n *Namespace) Parent() Node {
	return n.parent
}

func (n *Namespace) Value() string {
	return n.Uri
}

func (n *Namespace) Identity() string {
	return fmt.Sprintf("ns:%p", n)
}

func (n *Namespace) path() []int {
	if n.parent == nil {
		return []int{0, nsOrder + n.position}
	}
	return append(n.parent.path(), nsOrder+n.position)
}

func (n *Namespace) setParent(parent Node) {
	n.parent = parent
}

func (n *Namespace) setPosition(pos int) {
	n.position = pos
}

func writeTextValue(str *strings.Builder, node Node) {
	switch n := node.(type) {
	case *Text:
		str.WriteString(n.Content)
	case *Element:
		for i := range n.Nodes {
			writeTextValue(str, n.Nodes[i])
		}
	case *Document:
		for i := range n.Nodes {
			writeTextValue(str, n.Nodes[i])
		}
	default:
	}
}
