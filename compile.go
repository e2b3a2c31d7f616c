package xpath

import (
	"fmt"

	"github.com/midbel/xpath/xml"
)

// Compiler drives the Pratt loop over the token table of its dialect.
// It owns the one token lookahead window the grammar needs to tell a
// kind test from a function call or an axis name from an element name.
type Compiler struct {
	scan *Scanner
	curr Token
	peek Token

	registry *Registry
	version  Version

	namespaces map[string]string
	defaultNS  string

	tracer Tracer
}

func NewCompiler(version Version) (*Compiler, error) {
	reg, err := registryFor(version)
	if err != nil {
		return nil, err
	}
	cp := Compiler{
		registry:   reg,
		version:    version,
		namespaces: defaultNamespaces(),
		tracer:     discardTracer{},
	}
	return &cp, nil
}

func (c *Compiler) Trace(tracer Tracer) {
	if tracer == nil {
		tracer = discardTracer{}
	}
	c.tracer = tracer
}

func (c *Compiler) DefineNS(prefix, uri string) {
	c.namespaces[prefix] = uri
}

// Compile parses one complete expression; trailing input is a syntax
// error.
func (c *Compiler) Compile(query string) (Expr, error) {
	c.scan = ScanVersion(query, c.version)
	c.next()
	c.next()
	expr, err := c.compileTop()
	if err != nil {
		return nil, err
	}
	if !c.done() {
		return nil, c.unexpected("end of expression")
	}
	return expr, nil
}

// compileTop handles the sequence constructor: expressions joined by
// commas at the outermost level.
func (c *Compiler) compileTop() (Expr, error) {
	expr, err := c.expression(powLowest)
	if err != nil {
		return nil, err
	}
	if !c.is(opSeq) {
		return expr, nil
	}
	seq := sequenceExpr{
		all: []Expr{expr},
	}
	for c.is(opSeq) {
		c.next()
		next, err := c.expression(powLowest)
		if err != nil {
			return nil, err
		}
		seq.all = append(seq.all, next)
	}
	return seq, nil
}

// expression is the Pratt loop: null denotation of the current token,
// then left denotations while the lookahead binds tighter than rbp.
func (c *Compiler) expression(rbp int) (Expr, error) {
	c.tracer.Enter("expr", c.curr)
	defer c.tracer.Leave("expr", c.curr)

	if c.is(Invalid) {
		return nil, c.syntaxError(c.curr.Literal)
	}
	cls := c.registry.lookup(c.curr.Type)
	if cls == nil || cls.nud == nil {
		return nil, c.unexpected("expression")
	}
	left, err := cls.nud(c)
	if err != nil {
		return nil, err
	}
	for !c.done() {
		cls := c.registry.lookup(c.curr.Type)
		if cls == nil || cls.led == nil || cls.lbp <= rbp {
			break
		}
		left, err = cls.led(c, left)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (c *Compiler) next() {
	c.curr = c.peek
	c.peek = c.scan.Scan()
}

func (c *Compiler) is(kind rune) bool {
	return c.curr.Type == kind
}

func (c *Compiler) nextIs(kind rune) bool {
	return c.peek.Type == kind
}

func (c *Compiler) done() bool {
	return c.is(EOF)
}

// advance consumes the current token, asserting its type.
func (c *Compiler) advance(kind rune) error {
	if !c.is(kind) {
		want := Token{Type: kind}
		return c.syntaxError(fmt.Sprintf("expected %s", want))
	}
	c.next()
	return nil
}

func (c *Compiler) keyword(word string) error {
	if !c.is(Name) || c.curr.Literal != word {
		return c.syntaxError(fmt.Sprintf("expected %q keyword", word))
	}
	c.next()
	return nil
}

func (c *Compiler) isKeyword(word string) bool {
	return c.is(Name) && c.curr.Literal == word
}

func (c *Compiler) syntaxError(cause string) error {
	return errorAt(CodeSyntax, c.curr.Span, "%s", cause)
}

func (c *Compiler) unexpected(where string) error {
	return errorAt(CodeSyntax, c.curr.Span, "unexpected %s in %s", c.curr, where)
}

// resolvePrefix binds a lexical prefix against the in scope
// namespaces; an unknown prefix is the static error XPST0081.
func (c *Compiler) resolvePrefix(prefix string, span Span) (string, error) {
	if prefix == "" {
		return "", nil
	}
	uri, ok := c.namespaces[prefix]
	if !ok {
		return "", errorAt(CodeUnboundPrefix, span, "%s: unbound namespace prefix", prefix)
	}
	return uri, nil
}

// qname reads an EQName starting at the current token: local,
// prefix:local, prefix:* or Q{uri}local.
func (c *Compiler) qname() (xml.QName, error) {
	var qn xml.QName
	if c.is(BraceUri) {
		qn.Uri = c.curr.Literal
		c.next()
		if !c.is(Name) && !c.is(opMul) {
			return qn, c.unexpected("name")
		}
		qn.Name = c.curr.Literal
		if c.is(opMul) {
			qn.Name = "*"
		}
		c.next()
		return qn, nil
	}
	if !c.is(Name) {
		return qn, c.unexpected("name")
	}
	var (
		span = c.curr.Span
		err  error
	)
	qn.Name = c.curr.Literal
	c.next()
	if c.is(Namespace) {
		c.next()
		qn.Space = qn.Name
		switch {
		case c.is(Name):
			qn.Name = c.curr.Literal
		case c.is(opMul):
			qn.Name = "*"
		default:
			return qn, c.unexpected("qualified name")
		}
		c.next()
		qn.Uri, err = c.resolvePrefix(qn.Space, span)
		if err != nil {
			return qn, err
		}
	}
	return qn, nil
}
