package xpath

import (
	"strconv"
	"strings"

	"github.com/midbel/xpath/xml"
	"github.com/shopspring/decimal"
)

// register10 lays down the XPath 1.0 token table: literals, paths,
// predicates, the arithmetic, comparison, logical and union operators.
func register10(r *Registry) {
	r.prefix(Digit, nudNumber)
	r.prefix(Literal, nudLiteral)
	r.prefix(Variable, nudVariable)
	r.prefix(Name, nudName)
	r.prefix(BraceUri, nudStep)
	r.prefix(currNode, nudCurrent)
	r.prefix(parentNode, nudParent)
	r.prefix(attrNode, nudAttr)
	r.prefix(begGrp, nudGroup)
	r.prefix(opMul, nudStep)
	r.prefix(opSub, nudUnary)
	r.prefix(opAdd, nudUnary)

	r.register(currLevel, powStep, powStep, nudRoot, ledStep)
	r.register(anyLevel, powStep, powStep, nudDescRoot, ledDescStep)
	r.infix(begPred, powPred, ledPredicate)

	r.infix(opAdd, powAdd, ledBinary)
	r.infix(opSub, powAdd, ledBinary)
	r.infix(opMul, powMul, ledBinary)
	r.infix(opDiv, powMul, ledBinary)
	r.infix(opMod, powMul, ledBinary)
	r.infix(opEq, powCmp, ledBinary)
	r.infix(opNe, powCmp, ledBinary)
	r.infix(opLt, powCmp, ledBinary)
	r.infix(opLe, powCmp, ledBinary)
	r.infix(opGt, powCmp, ledBinary)
	r.infix(opGe, powCmp, ledBinary)
	r.infix(opAnd, powAnd, ledLogical)
	r.infix(opOr, powOr, ledLogical)
	r.infix(opUnion, powUnion, ledUnion)
}

// register20 layers the 2.0 additions: value and node comparisons,
// ranges, set operators, the type operators.
func register20(r *Registry) {
	r.infix(opValEq, powCmp, ledBinary)
	r.infix(opValNe, powCmp, ledBinary)
	r.infix(opValLt, powCmp, ledBinary)
	r.infix(opValLe, powCmp, ledBinary)
	r.infix(opValGt, powCmp, ledBinary)
	r.infix(opValGe, powCmp, ledBinary)
	r.infix(opIs, powCmp, ledBinary)
	r.infix(opBefore, powCmp, ledBinary)
	r.infix(opAfter, powCmp, ledBinary)
	r.infix(opRange, powRange, ledRange)
	r.infix(opIdiv, powMul, ledBinary)
	r.infix(opIntersect, powIntersect, ledIntersect)
	r.infix(opExcept, powIntersect, ledExcept)
	r.infix(opInstanceOf, powInstance, ledInstance)
	r.infix(opTreatAs, powTreat, ledTreat)
	r.infix(opCastableAs, powCastable, ledCastable)
	r.infix(opCastAs, powCast, ledCast)
}

// register30 layers the 3.0 additions: string concatenation, the
// simple map operator, dynamic calls, function references.
func register30(r *Registry) {
	r.infix(opConcat, powConcat, ledBinary)
	r.infix(opBang, powBang, ledBang)
	r.infix(begGrp, powCall, ledCall)
	r.infix(opHash, powCall, ledHash)
}

// register31 layers the 3.1 additions: arrow application, lookup, and
// the square array constructor.
func register31(r *Registry) {
	r.infix(opArrow, powArrow, ledArrow)
	r.register(opQuestion, powPred, powPred, nudLookup, ledLookup)
	r.prefix(begPred, nudSquareArray)
}

func nudNumber(c *Compiler) (Expr, error) {
	lit := c.curr.Literal
	c.next()
	if strings.ContainsAny(lit, "eE") {
		v, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return nil, c.syntaxError("invalid number literal")
		}
		return number{item: doubleItem(v)}, nil
	}
	if strings.Contains(lit, ".") {
		if strings.HasPrefix(lit, ".") {
			lit = "0" + lit
		}
		if strings.HasSuffix(lit, ".") {
			lit += "0"
		}
		d, err := decimal.NewFromString(lit)
		if err != nil {
			return nil, c.syntaxError("invalid number literal")
		}
		return number{item: decimalItem(d)}, nil
	}
	v, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		d, err := decimal.NewFromString(lit)
		if err != nil {
			return nil, c.syntaxError("invalid number literal")
		}
		return number{item: decimalItem(d)}, nil
	}
	return number{item: integerItem(v)}, nil
}

func nudLiteral(c *Compiler) (Expr, error) {
	lit := c.curr.Literal
	c.next()
	return literal{value: lit}, nil
}

func nudVariable(c *Compiler) (Expr, error) {
	v := varRef{
		ident: c.curr.Literal,
		span:  c.curr.Span,
	}
	c.next()
	return v, nil
}

func nudCurrent(c *Compiler) (Expr, error) {
	c.next()
	return current{}, nil
}

func nudParent(c *Compiler) (Expr, error) {
	expr := axisExpr{
		kind: parentAxis,
		test: kindTest{kind: xml.TypeNode},
		span: c.curr.Span,
	}
	c.next()
	return expr, nil
}

func nudAttr(c *Compiler) (Expr, error) {
	span := c.curr.Span
	c.next()
	test, err := c.compileNodeTest()
	if err != nil {
		return nil, err
	}
	expr := axisExpr{
		kind: attrAxis,
		test: test,
		span: span,
	}
	return expr, nil
}

func nudGroup(c *Compiler) (Expr, error) {
	c.next()
	if c.is(endGrp) {
		c.next()
		return value{}, nil
	}
	expr, err := c.compileTop()
	if err != nil {
		return nil, err
	}
	if err := c.advance(endGrp); err != nil {
		return nil, err
	}
	return expr, nil
}

func nudUnary(c *Compiler) (Expr, error) {
	var (
		op   = c.curr.Type
		span = c.curr.Span
	)
	c.next()
	expr, err := c.expression(powPrefix)
	if err != nil {
		return nil, err
	}
	return unary{op: op, expr: expr, span: span}, nil
}

func nudRoot(c *Compiler) (Expr, error) {
	span := c.curr.Span
	c.next()
	if !c.startsStep() {
		return root{}, nil
	}
	next, err := c.expression(powStep)
	if err != nil {
		return nil, err
	}
	return step{curr: root{}, next: next, span: span}, nil
}

func nudDescRoot(c *Compiler) (Expr, error) {
	span := c.curr.Span
	c.next()
	next, err := c.expression(powStep)
	if err != nil {
		return nil, err
	}
	expr := step{
		curr: root{},
		next: step{
			curr: axisExpr{
				kind: descendantSelfAxis,
				test: kindTest{kind: xml.TypeNode},
				span: span,
			},
			next: next,
			span: span,
		},
		span: span,
	}
	return expr, nil
}

// startsStep reports whether the current token can begin a relative
// path step, which decides between "/" alone and "/a".
func (c *Compiler) startsStep() bool {
	switch c.curr.Type {
	case Name, opMul, attrNode, BraceUri, currNode, parentNode:
		return true
	default:
		return false
	}
}

func ledStep(c *Compiler, left Expr) (Expr, error) {
	span := c.curr.Span
	c.next()
	next, err := c.expression(powStep)
	if err != nil {
		return nil, err
	}
	return step{curr: left, next: next, span: span}, nil
}

func ledDescStep(c *Compiler, left Expr) (Expr, error) {
	span := c.curr.Span
	c.next()
	next, err := c.expression(powStep)
	if err != nil {
		return nil, err
	}
	expr := step{
		curr: left,
		next: step{
			curr: axisExpr{
				kind: descendantSelfAxis,
				test: kindTest{kind: xml.TypeNode},
				span: span,
			},
			next: next,
			span: span,
		},
		span: span,
	}
	return expr, nil
}

func ledPredicate(c *Compiler, left Expr) (Expr, error) {
	c.next()
	if c.is(endPred) {
		return nil, c.syntaxError("empty predicate")
	}
	check, err := c.compileTop()
	if err != nil {
		return nil, err
	}
	if err := c.advance(endPred); err != nil {
		return nil, err
	}
	return filter{expr: left, check: check}, nil
}

func ledBinary(c *Compiler, left Expr) (Expr, error) {
	var (
		op   = c.curr.Type
		span = c.curr.Span
		pow  = c.registry.power(op)
	)
	c.next()
	right, err := c.expression(pow)
	if err != nil {
		return nil, err
	}
	return binary{op: op, left: left, right: right, span: span}, nil
}

func ledLogical(c *Compiler, left Expr) (Expr, error) {
	var (
		op  = c.curr.Type
		pow = c.registry.power(op)
	)
	c.next()
	right, err := c.expression(pow)
	if err != nil {
		return nil, err
	}
	return logical{op: op, left: left, right: right}, nil
}

func ledRange(c *Compiler, left Expr) (Expr, error) {
	span := c.curr.Span
	c.next()
	right, err := c.expression(powRange)
	if err != nil {
		return nil, err
	}
	return rangeExpr{left: left, right: right, span: span}, nil
}

func ledUnion(c *Compiler, left Expr) (Expr, error) {
	span := c.curr.Span
	c.next()
	right, err := c.expression(powUnion)
	if err != nil {
		return nil, err
	}
	if u, ok := left.(unionExpr); ok {
		u.all = append(u.all, right)
		return u, nil
	}
	return unionExpr{all: []Expr{left, right}, span: span}, nil
}

func ledIntersect(c *Compiler, left Expr) (Expr, error) {
	span := c.curr.Span
	c.next()
	right, err := c.expression(powIntersect)
	if err != nil {
		return nil, err
	}
	return intersectExpr{all: []Expr{left, right}, span: span}, nil
}

func ledExcept(c *Compiler, left Expr) (Expr, error) {
	span := c.curr.Span
	c.next()
	right, err := c.expression(powIntersect)
	if err != nil {
		return nil, err
	}
	return exceptExpr{all: []Expr{left, right}, span: span}, nil
}

func ledBang(c *Compiler, left Expr) (Expr, error) {
	c.next()
	right, err := c.expression(powBang)
	if err != nil {
		return nil, err
	}
	return simpleMap{left: left, right: right}, nil
}

// ledArrow desugars E => f(args) into f(E, args).
func ledArrow(c *Compiler, left Expr) (Expr, error) {
	span := c.curr.Span
	c.next()
	switch {
	case c.is(Name) || c.is(BraceUri):
		name, err := c.qname()
		if err != nil {
			return nil, err
		}
		if name.Space == "" && name.Uri == "" {
			name.Uri = fnNS
		}
		args, err := c.arguments()
		if err != nil {
			return nil, err
		}
		return call{name: name, args: append([]Expr{left}, args...), span: span}, nil
	case c.is(Variable), c.is(begGrp):
		target, err := c.expression(powCall)
		if err != nil {
			return nil, err
		}
		args, err := c.arguments()
		if err != nil {
			return nil, err
		}
		return dynCall{expr: target, args: append([]Expr{left}, args...), span: span}, nil
	default:
		return nil, c.unexpected("arrow target")
	}
}

func ledCall(c *Compiler, left Expr) (Expr, error) {
	span := c.curr.Span
	args, err := c.arguments()
	if err != nil {
		return nil, err
	}
	return dynCall{expr: left, args: args, span: span}, nil
}

// ledHash turns name#arity into a function reference.
func ledHash(c *Compiler, left Expr) (Expr, error) {
	span := c.curr.Span
	name, ok := callableName(left)
	if !ok {
		return nil, errorAt(CodeSyntax, span, "function name expected before '#'")
	}
	c.next()
	if !c.is(Digit) {
		return nil, c.syntaxError("arity expected after '#'")
	}
	arity, err := strconv.Atoi(c.curr.Literal)
	if err != nil {
		return nil, c.syntaxError("invalid arity")
	}
	c.next()
	return namedFuncRef{name: name, arity: arity, span: span}, nil
}

// callableName recovers the function name from a name test parsed in
// prefix position.
func callableName(left Expr) (xml.QName, bool) {
	a, ok := left.(axisExpr)
	if !ok || a.kind != childAxis {
		return xml.QName{}, false
	}
	nt, ok := a.test.(nameTest)
	if !ok || nt.wildLocal || nt.wildSpace {
		return xml.QName{}, false
	}
	name := nt.name
	if name.Space == "" && name.Uri == "" {
		name.Uri = fnNS
	}
	return name, true
}

func nudLookup(c *Compiler) (Expr, error) {
	span := c.curr.Span
	key, err := c.lookupKeySpec()
	if err != nil {
		return nil, err
	}
	return lookupExpr{key: key, span: span}, nil
}

func ledLookup(c *Compiler, left Expr) (Expr, error) {
	span := c.curr.Span
	key, err := c.lookupKeySpec()
	if err != nil {
		return nil, err
	}
	return lookupExpr{expr: left, key: key, span: span}, nil
}

func (c *Compiler) lookupKeySpec() (lookupKey, error) {
	var key lookupKey
	c.next()
	switch {
	case c.is(Name):
		key.name = c.curr.Literal
		c.next()
	case c.is(Digit):
		at, err := strconv.ParseInt(c.curr.Literal, 10, 64)
		if err != nil {
			return key, c.syntaxError("integer key expected")
		}
		key.at = at
		c.next()
	case c.is(opMul):
		key.wild = true
		c.next()
	case c.is(begGrp):
		expr, err := nudGroup(c)
		if err != nil {
			return key, err
		}
		key.expr = expr
	default:
		return key, c.unexpected("lookup key")
	}
	return key, nil
}

func nudSquareArray(c *Compiler) (Expr, error) {
	c.next()
	var ctor arrayCtor
	for !c.done() && !c.is(endPred) {
		expr, err := c.expression(powLowest)
		if err != nil {
			return nil, err
		}
		ctor.all = append(ctor.all, expr)
		if c.is(opSeq) {
			c.next()
			if c.is(endPred) {
				return nil, c.syntaxError("trailing comma in array")
			}
		}
	}
	if err := c.advance(endPred); err != nil {
		return nil, err
	}
	return ctor, nil
}

func ledCast(c *Compiler, left Expr) (Expr, error) {
	span := c.curr.Span
	c.next()
	target, optional, err := c.singleType()
	if err != nil {
		return nil, err
	}
	return castExpr{expr: left, target: target, optional: optional, span: span}, nil
}

func ledCastable(c *Compiler, left Expr) (Expr, error) {
	c.next()
	target, optional, err := c.singleType()
	if err != nil {
		return nil, err
	}
	return castableExpr{expr: left, target: target, optional: optional}, nil
}

func ledTreat(c *Compiler, left Expr) (Expr, error) {
	span := c.curr.Span
	c.next()
	st, err := c.sequenceType()
	if err != nil {
		return nil, err
	}
	return treatExpr{expr: left, st: st, span: span}, nil
}

func ledInstance(c *Compiler, left Expr) (Expr, error) {
	c.next()
	st, err := c.sequenceType()
	if err != nil {
		return nil, err
	}
	return instanceExpr{expr: left, st: st}, nil
}

func (c *Compiler) singleType() (*AtomicType, bool, error) {
	span := c.curr.Span
	name, err := c.qname()
	if err != nil {
		return nil, false, err
	}
	if name.Space == "" && name.Uri == "" {
		name.Space = "xs"
	}
	target, ok := TypeByName(name)
	if !ok || target == typeAnyAtomic {
		return nil, false, errorAt(CodeUnknownType, span, "%s: unknown atomic type", name.QualifiedName())
	}
	var optional bool
	if c.is(opQuestion) {
		optional = true
		c.next()
	}
	return target, optional, nil
}

// nudName starts every bare word: the keyword constructs recognized
// through the lookahead window, otherwise a path step or a call.
func nudName(c *Compiler) (Expr, error) {
	lit := c.curr.Literal
	switch {
	case c.nextIs(begGrp):
		if lit == kwIf && c.version >= Version20 {
			return c.compileIf()
		}
		if lit == kwFunction && c.version >= Version30 {
			return c.compileInlineFunc()
		}
	case c.nextIs(Variable):
		switch lit {
		case kwFor:
			if c.version >= Version20 {
				return c.compileFor()
			}
		case kwLet:
			if c.version >= Version30 {
				return c.compileLet()
			}
		case kwSome, kwEvery:
			if c.version >= Version20 {
				return c.compileQuantified(lit == kwEvery)
			}
		}
	case c.nextIs(begCurl):
		if c.version >= Version31 {
			switch lit {
			case kwMap:
				return c.compileMapCtor()
			case kwArray:
				return c.compileCurlyArray()
			}
		}
	}
	return nudStep(c)
}

// nudStep parses an axis step, a node test on the child axis, or a
// static function call.
func nudStep(c *Compiler) (Expr, error) {
	span := c.curr.Span
	if c.is(Name) && c.nextIs(opAxis) {
		kind := c.curr.Literal
		if !isAxis(kind) {
			return nil, errorAt(CodeSyntax, span, "%s: unknown axis", kind)
		}
		c.next()
		c.next()
		test, err := c.compileNodeTest()
		if err != nil {
			return nil, err
		}
		return axisExpr{kind: kind, test: test, span: span}, nil
	}
	if c.is(Name) && isKindTestName(c.curr.Literal) && c.nextIs(begGrp) {
		test, err := c.compileKindTest()
		if err != nil {
			return nil, err
		}
		return axisExpr{kind: childAxis, test: test, span: span}, nil
	}
	if c.is(opMul) {
		test, err := c.compileNodeTest()
		if err != nil {
			return nil, err
		}
		return axisExpr{kind: childAxis, test: test, span: span}, nil
	}
	name, err := c.qname()
	if err != nil {
		return nil, err
	}
	if c.is(begGrp) {
		if name.Space == "" && name.Uri == "" {
			name.Uri = fnNS
		}
		args, err := c.arguments()
		if err != nil {
			return nil, err
		}
		return call{name: name, args: args, span: span}, nil
	}
	test := nameTest{
		name:      name,
		wildLocal: name.Name == "*",
		prefixed:  name.Space != "" || name.Uri != "",
	}
	if !test.prefixed {
		test.name.Uri = c.defaultNS
	}
	return axisExpr{kind: childAxis, test: test, span: span}, nil
}

// compileNodeTest parses the test part of a step: wildcards, kind
// tests, names.
func (c *Compiler) compileNodeTest() (Expr, error) {
	if c.is(opMul) {
		if c.nextIs(Namespace) {
			c.next()
			c.next()
			if !c.is(Name) {
				return nil, c.unexpected("name after '*:'")
			}
			test := nameTest{
				name:      xml.LocalName(c.curr.Literal),
				wildSpace: true,
			}
			c.next()
			return test, nil
		}
		c.next()
		return nameTest{wildSpace: true, wildLocal: true}, nil
	}
	if c.is(Name) && isKindTestName(c.curr.Literal) && c.nextIs(begGrp) {
		return c.compileKindTest()
	}
	name, err := c.qname()
	if err != nil {
		return nil, err
	}
	test := nameTest{
		name:      name,
		wildLocal: name.Name == "*",
		prefixed:  name.Space != "" || name.Uri != "",
	}
	if !test.prefixed {
		test.name.Uri = c.defaultNS
	}
	return test, nil
}

func isKindTestName(name string) bool {
	switch name {
	case "node", "text", "comment", "element", "attribute",
		"document-node", "processing-instruction", "namespace-node",
		"schema-element", "schema-attribute":
		return true
	default:
		return false
	}
}

func (c *Compiler) compileKindTest() (kindTest, error) {
	var (
		test kindTest
		name = c.curr.Literal
	)
	switch name {
	case "node":
		test.kind = xml.TypeNode
	case "text":
		test.kind = xml.TypeText
	case "comment":
		test.kind = xml.TypeComment
	case "element", "schema-element":
		test.kind = xml.TypeElement
	case "attribute", "schema-attribute":
		test.kind = xml.TypeAttribute
	case "document-node":
		test.kind = xml.TypeDocument
	case "processing-instruction":
		test.kind = xml.TypeInstruction
	case "namespace-node":
		test.kind = xml.TypeNamespace
	default:
		return test, c.syntaxError("unsupported kind test")
	}
	c.next()
	if err := c.advance(begGrp); err != nil {
		return test, err
	}
	switch test.kind {
	case xml.TypeElement, xml.TypeAttribute:
		if !c.is(endGrp) {
			var (
				name xml.QName
				err  error
			)
			if c.is(opMul) {
				name.Name = "*"
				c.next()
			} else if name, err = c.qname(); err != nil {
				return test, err
			}
			if name.Name != "*" {
				test.name = name
				test.hasName = true
			}
			if c.is(opSeq) {
				c.next()
				span := c.curr.Span
				tn, err := c.qname()
				if err != nil {
					return test, err
				}
				if _, ok := TypeByName(tn); !ok {
					return test, errorAt(CodeUnknownType, span, "%s: unknown type annotation", tn.QualifiedName())
				}
				if c.is(opQuestion) {
					c.next()
				}
			}
		}
	case xml.TypeInstruction:
		if c.is(Name) || c.is(Literal) {
			test.target = c.curr.Literal
			c.next()
		}
	case xml.TypeDocument:
		if c.is(Name) && isKindTestName(c.curr.Literal) {
			inner, err := c.compileKindTest()
			if err != nil {
				return test, err
			}
			_ = inner
		}
	}
	if err := c.advance(endGrp); err != nil {
		return test, err
	}
	return test, nil
}

// arguments parses a parenthesized, comma separated argument list;
// the current token is the opening parenthesis.
func (c *Compiler) arguments() ([]Expr, error) {
	if err := c.advance(begGrp); err != nil {
		return nil, err
	}
	var args []Expr
	for !c.done() && !c.is(endGrp) {
		arg, err := c.expression(powLowest)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		switch {
		case c.is(opSeq):
			c.next()
			if c.is(endGrp) {
				return nil, c.syntaxError("trailing comma in argument list")
			}
		case c.is(endGrp):
		default:
			return nil, c.unexpected("argument list")
		}
	}
	if err := c.advance(endGrp); err != nil {
		return nil, err
	}
	return args, nil
}

func (c *Compiler) compileIf() (Expr, error) {
	c.tracer.Enter("if", c.curr)
	defer c.tracer.Leave("if", c.curr)

	c.next()
	var (
		cdt conditional
		err error
	)
	if err = c.advance(begGrp); err != nil {
		return nil, err
	}
	if cdt.test, err = c.compileTop(); err != nil {
		return nil, err
	}
	if err = c.advance(endGrp); err != nil {
		return nil, err
	}
	if err = c.keyword(kwThen); err != nil {
		return nil, err
	}
	if cdt.csq, err = c.expression(powLowest); err != nil {
		return nil, err
	}
	if err = c.keyword(kwElse); err != nil {
		return nil, err
	}
	if cdt.alt, err = c.expression(powLowest); err != nil {
		return nil, err
	}
	return cdt, nil
}

func (c *Compiler) compileBindings(assign bool) ([]binding, error) {
	var binds []binding
	for {
		if !c.is(Variable) {
			return nil, c.unexpected("variable binding")
		}
		b := binding{
			ident: c.curr.Literal,
		}
		c.next()
		if assign {
			if err := c.advance(opAssign); err != nil {
				return nil, err
			}
		} else {
			if err := c.keyword(kwIn); err != nil {
				return nil, err
			}
		}
		expr, err := c.expression(powLowest)
		if err != nil {
			return nil, err
		}
		b.expr = expr
		binds = append(binds, b)
		if !c.is(opSeq) {
			break
		}
		c.next()
	}
	return binds, nil
}

func (c *Compiler) compileFor() (Expr, error) {
	c.tracer.Enter("for", c.curr)
	defer c.tracer.Leave("for", c.curr)

	c.next()
	binds, err := c.compileBindings(false)
	if err != nil {
		return nil, err
	}
	if err := c.keyword(kwReturn); err != nil {
		return nil, err
	}
	body, err := c.expression(powLowest)
	if err != nil {
		return nil, err
	}
	return loop{binds: binds, body: body}, nil
}

func (c *Compiler) compileLet() (Expr, error) {
	c.tracer.Enter("let", c.curr)
	defer c.tracer.Leave("let", c.curr)

	c.next()
	binds, err := c.compileBindings(true)
	if err != nil {
		return nil, err
	}
	if err := c.keyword(kwReturn); err != nil {
		return nil, err
	}
	body, err := c.expression(powLowest)
	if err != nil {
		return nil, err
	}
	return letExpr{binds: binds, body: body}, nil
}

func (c *Compiler) compileQuantified(every bool) (Expr, error) {
	c.tracer.Enter("some/every", c.curr)
	defer c.tracer.Leave("some/every", c.curr)

	c.next()
	binds, err := c.compileBindings(false)
	if err != nil {
		return nil, err
	}
	if err := c.keyword(kwSatisfies); err != nil {
		return nil, err
	}
	test, err := c.expression(powLowest)
	if err != nil {
		return nil, err
	}
	return quantified{binds: binds, test: test, every: every}, nil
}

func (c *Compiler) compileInlineFunc() (Expr, error) {
	c.tracer.Enter("function", c.curr)
	defer c.tracer.Leave("function", c.curr)

	c.next()
	if err := c.advance(begGrp); err != nil {
		return nil, err
	}
	var fn inlineFunc
	for !c.done() && !c.is(endGrp) {
		if !c.is(Variable) {
			return nil, c.unexpected("parameter")
		}
		fn.params = append(fn.params, c.curr.Literal)
		c.next()
		if c.isKeyword(kwAs) {
			c.next()
			if _, err := c.sequenceType(); err != nil {
				return nil, err
			}
		}
		if c.is(opSeq) {
			c.next()
			if c.is(endGrp) {
				return nil, c.syntaxError("trailing comma in parameter list")
			}
		}
	}
	if err := c.advance(endGrp); err != nil {
		return nil, err
	}
	if c.isKeyword(kwAs) {
		c.next()
		if _, err := c.sequenceType(); err != nil {
			return nil, err
		}
	}
	if err := c.advance(begCurl); err != nil {
		return nil, err
	}
	if c.is(endCurl) {
		c.next()
		fn.body = value{}
		return fn, nil
	}
	body, err := c.compileTop()
	if err != nil {
		return nil, err
	}
	fn.body = body
	if err := c.advance(endCurl); err != nil {
		return nil, err
	}
	return fn, nil
}

func (c *Compiler) compileMapCtor() (Expr, error) {
	c.tracer.Enter("map", c.curr)
	defer c.tracer.Leave("map", c.curr)

	span := c.curr.Span
	c.next()
	if err := c.advance(begCurl); err != nil {
		return nil, err
	}
	ctor := mapCtor{
		span: span,
	}
	for !c.done() && !c.is(endCurl) {
		key, err := c.expression(powLowest)
		if err != nil {
			return nil, err
		}
		if err := c.advance(Namespace); err != nil {
			return nil, err
		}
		val, err := c.expression(powLowest)
		if err != nil {
			return nil, err
		}
		ctor.entries = append(ctor.entries, mapEntry{key: key, value: val})
		if c.is(opSeq) {
			c.next()
			if c.is(endCurl) {
				return nil, c.syntaxError("trailing comma in map")
			}
		}
	}
	if err := c.advance(endCurl); err != nil {
		return nil, err
	}
	return ctor, nil
}

func (c *Compiler) compileCurlyArray() (Expr, error) {
	c.tracer.Enter("array", c.curr)
	defer c.tracer.Leave("array", c.curr)

	c.next()
	if err := c.advance(begCurl); err != nil {
		return nil, err
	}
	ctor := arrayCtor{
		flatten: true,
	}
	for !c.done() && !c.is(endCurl) {
		expr, err := c.expression(powLowest)
		if err != nil {
			return nil, err
		}
		ctor.all = append(ctor.all, expr)
		if c.is(opSeq) {
			c.next()
			if c.is(endCurl) {
				return nil, c.syntaxError("trailing comma in array")
			}
		}
	}
	if err := c.advance(endCurl); err != nil {
		return nil, err
	}
	return ctor, nil
}

// sequenceType parses ItemType with its occurrence indicator.
func (c *Compiler) sequenceType() (SequenceType, error) {
	var st SequenceType
	if c.isKeyword("empty-sequence") && c.nextIs(begGrp) {
		c.next()
		c.next()
		if err := c.advance(endGrp); err != nil {
			return st, err
		}
		return st, nil
	}
	item, err := c.itemType()
	if err != nil {
		return st, err
	}
	st.item = item
	switch c.curr.Type {
	case opQuestion:
		st.occ = OccOptional
		c.next()
	case opMul:
		st.occ = OccZeroOrMore
		c.next()
	case opAdd:
		st.occ = OccOneOrMore
		c.next()
	}
	return st, nil
}

func (c *Compiler) itemType() (ItemType, error) {
	if c.is(Name) && c.nextIs(begGrp) {
		switch c.curr.Literal {
		case "item":
			c.next()
			c.next()
			if err := c.advance(endGrp); err != nil {
				return nil, err
			}
			return anyItemType{}, nil
		case kwFunction:
			return c.functionType()
		case kwMap:
			return c.containerType(mapItemType{}, 2)
		case kwArray:
			return c.containerType(arrayItemType{}, 1)
		default:
			if isKindTestName(c.curr.Literal) {
				kt, err := c.compileKindTest()
				if err != nil {
					return nil, err
				}
				return nodeItemType{
					kind:    kt.kind,
					name:    kt.name,
					hasName: kt.hasName,
					target:  kt.target,
				}, nil
			}
		}
	}
	span := c.curr.Span
	name, err := c.qname()
	if err != nil {
		return nil, err
	}
	if name.Space == "" && name.Uri == "" {
		name.Space = "xs"
	}
	kind, ok := TypeByName(name)
	if !ok {
		return nil, errorAt(CodeUnknownType, span, "%s: unknown atomic type", name.QualifiedName())
	}
	return atomicItemType{kind: kind}, nil
}

func (c *Compiler) functionType() (ItemType, error) {
	c.next()
	c.next()
	if c.is(opMul) {
		c.next()
		if err := c.advance(endGrp); err != nil {
			return nil, err
		}
		return funcItemType{arity: -1}, nil
	}
	var arity int
	for !c.done() && !c.is(endGrp) {
		if _, err := c.sequenceType(); err != nil {
			return nil, err
		}
		arity++
		if c.is(opSeq) {
			c.next()
		}
	}
	if err := c.advance(endGrp); err != nil {
		return nil, err
	}
	if err := c.keyword(kwAs); err != nil {
		return nil, err
	}
	if _, err := c.sequenceType(); err != nil {
		return nil, err
	}
	return funcItemType{arity: arity}, nil
}

func (c *Compiler) containerType(item ItemType, arity int) (ItemType, error) {
	c.next()
	c.next()
	if c.is(opMul) {
		c.next()
		if err := c.advance(endGrp); err != nil {
			return nil, err
		}
		return item, nil
	}
	for i := 0; i < arity; i++ {
		if i == 0 && arity == 2 {
			// map keys are atomic types
			if _, err := c.itemType(); err != nil {
				return nil, err
			}
			if err := c.advance(opSeq); err != nil {
				return nil, err
			}
			continue
		}
		if _, err := c.sequenceType(); err != nil {
			return nil, err
		}
	}
	if err := c.advance(endGrp); err != nil {
		return nil, err
	}
	return item, nil
}
