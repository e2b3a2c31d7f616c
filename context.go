package xpath

import (
	"time"

	"github.com/midbel/xpath/environ"
	"github.com/midbel/xpath/xml"
)

// DocumentLoader resolves an absolute URI to a parsed document. The
// engine never performs I/O on its own: fn:doc consults the context
// cache, then this callback.
type DocumentLoader func(uri string) (*xml.Document, error)

// Runtime carries everything an evaluation shares across focus
// changes: namespaces, the builtin library, collations, the frozen
// current date/time, the document cache.
type Runtime struct {
	version    Version
	compat     bool
	namespaces map[string]string
	defaultNS  string
	builtins   *FuncLib
	collations map[string]Collation
	collation  string
	baseURI    string
	now        Moment
	location   *time.Location
	docs       map[string]*xml.Document
	loader     DocumentLoader
	schema     Schema
	cancel     func() bool
	tracer     Tracer
}

func newRuntime(version Version) *Runtime {
	rt := Runtime{
		version:    version,
		namespaces: defaultNamespaces(),
		collations: make(map[string]Collation),
		docs:       make(map[string]*xml.Document),
		location:   time.Local,
		tracer:     discardTracer{},
	}
	rt.now = Moment{Time: time.Now(), Zoned: true}
	rt.builtins = builtinsFor(version)
	rt.schema = untypedSchema{}
	return &rt
}

func defaultNamespaces() map[string]string {
	return map[string]string{
		"xs":    schemaNS,
		"fn":    fnNS,
		"math":  mathNS,
		"map":   mapNS,
		"array": arrayNS,
		"xml":   xml.XmlNS,
		"local": localNS,
	}
}

// slot is one variable binding. Bindings made by let are lazy: the
// expression runs on first use and the result is memoized.
type slot struct {
	seq  Sequence
	err  error
	done bool
	expr Expr
	ctx  *Context
}

func bound(seq Sequence) *slot {
	return &slot{
		seq:  seq,
		done: true,
	}
}

func deferred(expr Expr, ctx Context) *slot {
	return &slot{
		expr: expr,
		ctx:  &ctx,
	}
}

func (s *slot) value() (Sequence, error) {
	if !s.done {
		s.seq, s.err = s.expr.find(*s.ctx)
		s.done = true
	}
	return s.seq, s.err
}

// Context is the dynamic focus: the context item, its position and
// the size of the focus, plus the variable scope chain. Focus changes
// copy the value, never mutate it.
type Context struct {
	Item  Item
	Index int
	Size  int

	Principal xml.NodeType

	vars environ.Environ[*slot]
	rt   *Runtime
}

func createContext(item Item, pos, size int, rt *Runtime) Context {
	return Context{
		Item:      item,
		Index:     pos,
		Size:      size,
		Principal: xml.TypeElement,
		vars:      environ.Empty[*slot](),
		rt:        rt,
	}
}

// Sub changes the focus, keeping the variable scope.
func (c Context) Sub(item Item, pos, size int) Context {
	ctx := c
	ctx.Item = item
	ctx.Index = pos
	ctx.Size = size
	return ctx
}

// Nest opens a fresh variable scope for a binding construct.
func (c Context) Nest() Context {
	ctx := c
	ctx.vars = environ.Enclosed(c.vars)
	return ctx
}

func (c Context) Define(ident string, seq Sequence) {
	c.vars.Define(ident, bound(seq))
}

func (c Context) DefineLazy(ident string, expr Expr) {
	c.vars.Define(ident, deferred(expr, c))
}

func (c Context) Resolve(ident string) (Sequence, error) {
	s, err := c.vars.Resolve(ident)
	if err != nil {
		return nil, Errorf(CodeUndefinedVar, "$%s: undefined variable", ident)
	}
	return s.value()
}

// Node returns the context item as a node, raising the appropriate
// dynamic error otherwise.
func (c Context) Node() (xml.Node, error) {
	if c.Item == nil {
		return nil, Errorf(CodeNoContext, "context item is absent")
	}
	node := c.Item.Node()
	if node == nil {
		return nil, Errorf(CodeStepType, "context item is not a node")
	}
	return node, nil
}

func (c Context) Root() (xml.Node, error) {
	node, err := c.Node()
	if err != nil {
		return nil, err
	}
	for {
		parent := node.Parent()
		if parent == nil {
			return node, nil
		}
		node = parent
	}
}

func (c Context) Version() Version {
	return c.rt.version
}

func (c Context) Compat() bool {
	return c.rt.compat
}

func (c Context) Now() Moment {
	return c.rt.now
}

func (c Context) Location() *time.Location {
	return c.rt.location
}

func (c Context) BaseURI() string {
	return c.rt.baseURI
}

func (c Context) LookupNS(prefix string) (string, bool) {
	uri, ok := c.rt.namespaces[prefix]
	return uri, ok
}

func (c Context) Schema() Schema {
	return c.rt.schema
}

func (c Context) DefaultCollation() string {
	if c.rt.collation == "" {
		return codepointCollationURI
	}
	return c.rt.collation
}

func (c Context) Collation(name string) (Collation, error) {
	if name == "" {
		name = c.DefaultCollation()
	}
	if col, ok := c.rt.collations[name]; ok {
		return col, nil
	}
	col, err := resolveCollation(name)
	if err == nil {
		c.rt.collations[name] = col
	}
	return col, err
}

// Document resolves uri through the cache, then the loader.
func (c Context) Document(uri string) (*xml.Document, error) {
	if doc, ok := c.rt.docs[uri]; ok {
		return doc, nil
	}
	if c.rt.loader == nil {
		return nil, Errorf(CodeDocument, "%s: document not available", uri)
	}
	doc, err := c.rt.loader(uri)
	if err != nil {
		return nil, Errorf(CodeDocument, "%s: %s", uri, err)
	}
	c.rt.docs[uri] = doc
	return doc, nil
}

// Cancelled polls the caller supplied cancellation flag.
func (c Context) Cancelled() error {
	if c.rt.cancel != nil && c.rt.cancel() {
		return Errorf(CodeUserError, "evaluation cancelled")
	}
	return nil
}
