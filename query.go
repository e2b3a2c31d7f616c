package xpath

import (
	"iter"
	"time"

	"github.com/midbel/xpath/xml"
)

// Query is a parsed expression ready for evaluation. Parsing happens
// once; each Find opens a fresh evaluation with its own frozen
// current date/time and focus, so a Query can be shared by readers.
type Query struct {
	expr    Expr
	version Version
	compat  bool

	namespaces map[string]string
	defaultNS  string
	vars       map[string]Sequence
	collation  string
	baseURI    string
	location   *time.Location
	now        time.Time
	hasNow     bool
	docs       map[string]*xml.Document
	loader     DocumentLoader
	schema     Schema
	cancel     func() bool
	tracer     Tracer
}

type Option func(*Query)

func WithVersion(version Version) Option {
	return func(q *Query) {
		q.version = version
	}
}

// WithCompat selects the 1.0 grammar together with the backward
// compatible string/number coercion rules.
func WithCompat() Option {
	return func(q *Query) {
		q.version = Version10
		q.compat = true
	}
}

func WithNamespace(prefix, uri string) Option {
	return func(q *Query) {
		q.namespaces[prefix] = uri
	}
}

func WithDefaultNamespace(uri string) Option {
	return func(q *Query) {
		q.defaultNS = uri
	}
}

func WithVariable(name string, value any) Option {
	return func(q *Query) {
		if seq, ok := value.(Sequence); ok {
			q.vars[name] = seq
			return
		}
		q.vars[name] = Singleton(value)
	}
}

func WithCollation(uri string) Option {
	return func(q *Query) {
		q.collation = uri
	}
}

func WithBaseURI(uri string) Option {
	return func(q *Query) {
		q.baseURI = uri
	}
}

func WithTimezone(loc *time.Location) Option {
	return func(q *Query) {
		q.location = loc
	}
}

// WithNow pins the current date/time of every evaluation, mostly for
// reproducible runs and tests.
func WithNow(now time.Time) Option {
	return func(q *Query) {
		q.now = now
		q.hasNow = true
	}
}

func WithDocument(uri string, doc *xml.Document) Option {
	return func(q *Query) {
		q.docs[uri] = doc
	}
}

func WithLoader(loader DocumentLoader) Option {
	return func(q *Query) {
		q.loader = loader
	}
}

func WithSchema(schema Schema) Option {
	return func(q *Query) {
		q.schema = schema
	}
}

// WithCancel installs a flag polled at step boundaries; when it
// returns true the evaluation unwinds.
func WithCancel(cancel func() bool) Option {
	return func(q *Query) {
		q.cancel = cancel
	}
}

func WithTracer(tracer Tracer) Option {
	return func(q *Query) {
		q.tracer = tracer
	}
}

func Build(query string) (*Query, error) {
	return BuildWith(query)
}

func BuildWith(query string, options ...Option) (*Query, error) {
	q := Query{
		version:    VersionDefault,
		namespaces: defaultNamespaces(),
		vars:       make(map[string]Sequence),
		docs:       make(map[string]*xml.Document),
		tracer:     discardTracer{},
	}
	for _, opt := range options {
		opt(&q)
	}
	cp, err := NewCompiler(q.version)
	if err != nil {
		return nil, err
	}
	cp.Trace(q.tracer)
	for prefix, uri := range q.namespaces {
		cp.DefineNS(prefix, uri)
	}
	cp.defaultNS = q.defaultNS
	expr, err := cp.Compile(query)
	if err != nil {
		return nil, err
	}
	scope := make(map[string]bool)
	for name := range q.vars {
		scope[name] = true
	}
	if err := analyze(expr, scope, builtinsFor(q.version), q.compat); err != nil {
		return nil, err
	}
	q.expr = expr
	return &q, nil
}

func (q *Query) runtime() *Runtime {
	rt := newRuntime(q.version)
	rt.compat = q.compat
	for prefix, uri := range q.namespaces {
		rt.namespaces[prefix] = uri
	}
	rt.defaultNS = q.defaultNS
	rt.collation = q.collation
	rt.baseURI = q.baseURI
	if q.location != nil {
		rt.location = q.location
	}
	if q.hasNow {
		rt.now = Moment{Time: q.now, Zoned: true}
	}
	for uri, doc := range q.docs {
		rt.docs[uri] = doc
	}
	rt.loader = q.loader
	if q.schema != nil {
		rt.schema = q.schema
	}
	rt.cancel = q.cancel
	rt.tracer = q.tracer
	return rt
}

func (q *Query) context(node xml.Node) Context {
	var item Item
	if node != nil {
		item = createNode(node)
	}
	ctx := createContext(item, 1, 1, q.runtime())
	for name, seq := range q.vars {
		ctx.Define(name, seq)
	}
	return ctx
}

// Find evaluates the query with node as context item and returns the
// materialized result sequence.
func (q *Query) Find(node xml.Node) (Sequence, error) {
	return q.expr.find(q.context(node))
}

// Iter streams the result; producers that support it yield lazily so
// early consumers stop the walk.
func (q *Query) Iter(node xml.Node) iter.Seq2[Item, error] {
	return iterate(q.expr, q.context(node))
}

// Select evaluates and applies the result shaping rule: a single
// atomic value comes back bare, a single node as the node, anything
// else as a slice.
func (q *Query) Select(node xml.Node) (any, error) {
	seq, err := q.Find(node)
	if err != nil {
		return nil, err
	}
	switch seq.Len() {
	case 0:
		return []any{}, nil
	case 1:
		return itemValue(seq[0]), nil
	default:
		var out []any
		for i := range seq {
			out = append(out, itemValue(seq[i]))
		}
		return out, nil
	}
}

// String renders the string value of one result item.
func String(item Item) (string, error) {
	return itemString(item)
}

func itemValue(item Item) any {
	if n := item.Node(); n != nil {
		return n
	}
	return item.Value()
}

func (q *Query) Version() Version {
	return q.version
}

// Find compiles and runs path against node in one call.
func Find(node xml.Node, path string) (Sequence, error) {
	q, err := Build(path)
	if err != nil {
		return nil, err
	}
	return q.Find(node)
}

// FindWith is Find with options: it compiles path with BuildWith and
// runs it against node in one call.
func FindWith(node xml.Node, path string, options ...Option) (Sequence, error) {
	q, err := BuildWith(path, options...)
	if err != nil {
		return nil, err
	}
	return q.Find(node)
}
