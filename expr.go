package xpath

import (
	"slices"

	"github.com/midbel/xpath/xml"
)

// Expr is one node of the compiled expression tree. find evaluates it
// under a context and materializes the result sequence.
type Expr interface {
	find(Context) (Sequence, error)
}

type root struct{}

func (root) find(ctx Context) (Sequence, error) {
	node, err := ctx.Root()
	if err != nil {
		return nil, err
	}
	return SingletonNode(node), nil
}

type current struct{}

func (current) find(ctx Context) (Sequence, error) {
	if ctx.Item == nil {
		return nil, Errorf(CodeNoContext, "context item is absent")
	}
	return Sequence{ctx.Item}, nil
}

// step joins two path operands with "/": evaluate the right side for
// every item of the left one, then bring node results back to
// document order without duplicates.
type step struct {
	curr Expr
	next Expr
	span Span
}

func (s step) find(ctx Context) (Sequence, error) {
	if err := ctx.Cancelled(); err != nil {
		return nil, err
	}
	left, err := s.curr.find(ctx)
	if err != nil {
		return nil, err
	}
	var out Sequence
	for i := range left {
		if left[i].Node() == nil {
			return nil, errorAt(CodeStepType, s.span, "path step applied to an atomic value")
		}
		sub := ctx.Sub(left[i], i+1, left.Len())
		res, err := s.next.find(sub)
		if err != nil {
			return nil, err
		}
		out.Concat(res)
	}
	if out.Nodes() {
		return out.Sorted(), nil
	}
	if out.Atomics() {
		return out, nil
	}
	return nil, errorAt(CodeMixedPath, s.span, "path mixes nodes and atomic values")
}

// simpleMap is the "!" operator: like a step but for any items, in
// sequence order, duplicates kept.
type simpleMap struct {
	left  Expr
	right Expr
}

func (s simpleMap) find(ctx Context) (Sequence, error) {
	left, err := s.left.find(ctx)
	if err != nil {
		return nil, err
	}
	var out Sequence
	for i := range left {
		sub := ctx.Sub(left[i], i+1, left.Len())
		res, err := s.right.find(sub)
		if err != nil {
			return nil, err
		}
		out.Concat(res)
	}
	return out, nil
}

type axisExpr struct {
	kind string
	test Expr
	span Span
}

func (a axisExpr) find(ctx Context) (Sequence, error) {
	node, err := ctx.Node()
	if err != nil {
		return nil, spanned(err, a.span)
	}
	candidates, err := axisNodes(a.kind, node)
	if err != nil {
		return nil, spanned(err, a.span)
	}
	var list Sequence
	for i := range candidates {
		sub := ctx.Sub(createNode(candidates[i]), i+1, len(candidates))
		sub.Principal = principalKind(a.kind)
		matches, err := a.test.find(sub)
		if err != nil {
			return nil, err
		}
		list.Concat(matches)
	}
	return list, nil
}

// nameTest matches the context node against a name, honoring the
// principal node kind of the axis that produced the focus.
type nameTest struct {
	name      xml.QName
	wildSpace bool
	wildLocal bool
	// prefixed records an explicit prefix or braced uri; without one
	// the default element namespace applies to elements only
	prefixed bool
}

func (n nameTest) find(ctx Context) (Sequence, error) {
	node, err := ctx.Node()
	if err != nil {
		return nil, err
	}
	if node.Type() != ctx.Principal {
		return nil, nil
	}
	if !n.wildLocal && node.LocalName() != n.name.Name {
		return nil, nil
	}
	if !n.wildSpace {
		uri := n.name.Uri
		if !n.prefixed && ctx.Principal != xml.TypeElement {
			uri = ""
		}
		if node.Namespace() != uri {
			return nil, nil
		}
	}
	return Sequence{ctx.Item}, nil
}

type kindTest struct {
	kind    xml.NodeType
	name    xml.QName
	hasName bool
	target  string
}

func (k kindTest) find(ctx Context) (Sequence, error) {
	node, err := ctx.Node()
	if err != nil {
		return nil, err
	}
	if node.Type()&k.kind == 0 {
		return nil, nil
	}
	if k.target != "" && node.LocalName() != k.target {
		return nil, nil
	}
	if k.hasName {
		if k.name.Name != "*" && node.LocalName() != k.name.Name {
			return nil, nil
		}
		if node.Namespace() != k.name.Uri {
			return nil, nil
		}
	}
	return Sequence{ctx.Item}, nil
}

type literal struct {
	value string
}

func (l literal) find(_ Context) (Sequence, error) {
	return Singleton(l.value), nil
}

type number struct {
	item Item
}

func (n number) find(_ Context) (Sequence, error) {
	return Sequence{n.item}, nil
}

type varRef struct {
	ident string
	span  Span
}

func (v varRef) find(ctx Context) (Sequence, error) {
	seq, err := ctx.Resolve(v.ident)
	return seq, spanned(err, v.span)
}

// value injects an already computed sequence into the tree.
type value struct {
	seq Sequence
}

func NewValueFromSequence(seq Sequence) Expr {
	return value{
		seq: slices.Clone(seq),
	}
}

func NewValueFromLiteral(v any) Expr {
	return value{
		seq: Singleton(v),
	}
}

func NewValueFromNode(node xml.Node) Expr {
	return value{
		seq: SingletonNode(node),
	}
}

func (v value) find(_ Context) (Sequence, error) {
	return slices.Clone(v.seq), nil
}

type sequenceExpr struct {
	all []Expr
}

func (s sequenceExpr) find(ctx Context) (Sequence, error) {
	var list Sequence
	for i := range s.all {
		res, err := s.all[i].find(ctx)
		if err != nil {
			return nil, err
		}
		list.Concat(res)
	}
	return list, nil
}

type rangeExpr struct {
	left  Expr
	right Expr
	span  Span
}

func (r rangeExpr) find(ctx Context) (Sequence, error) {
	lo, err := rangeBound(r.left, ctx)
	if err != nil || lo == nil {
		return nil, spanned(err, r.span)
	}
	hi, err := rangeBound(r.right, ctx)
	if err != nil || hi == nil {
		return nil, spanned(err, r.span)
	}
	var (
		list Sequence
		m, _ = asInt(lo)
		n, _ = asInt(hi)
	)
	for i := m; i <= n; i++ {
		list.Append(integerItem(i))
	}
	return list, nil
}

func rangeBound(expr Expr, ctx Context) (Item, error) {
	seq, err := expr.find(ctx)
	if err != nil {
		return nil, err
	}
	item, err := atomizeSingle(seq, "range bound")
	if err != nil || item == nil {
		return nil, err
	}
	return castItem(item, typeInteger)
}

type binary struct {
	op    rune
	left  Expr
	right Expr
	span  Span
}

func (b binary) find(ctx Context) (Sequence, error) {
	left, err := b.left.find(ctx)
	if err != nil {
		return nil, err
	}
	right, err := b.right.find(ctx)
	if err != nil {
		return nil, err
	}
	seq, err := b.apply(left, right, ctx)
	return seq, spanned(err, b.span)
}

func (b binary) apply(left, right Sequence, ctx Context) (Sequence, error) {
	switch b.op {
	case opAdd, opSub, opMul, opDiv, opIdiv, opMod:
		return b.applyArithmetic(left, right, ctx)
	case opEq, opNe, opLt, opLe, opGt, opGe:
		ok, err := compareGeneral(b.op, left, right, ctx)
		if err != nil {
			return nil, err
		}
		return Singleton(ok), nil
	case opValEq, opValNe, opValLt, opValLe, opValGt, opValGe:
		return b.applyValueComparison(left, right, ctx)
	case opIs, opBefore, opAfter:
		return b.applyNodeComparison(left, right)
	case opConcat:
		var strs [2]string
		for i, seq := range []Sequence{left, right} {
			item, err := atomizeSingle(seq, "||")
			if err != nil {
				return nil, err
			}
			if item != nil {
				strs[i], err = itemString(item)
				if err != nil {
					return nil, err
				}
			}
		}
		return Singleton(strs[0] + strs[1]), nil
	default:
		return nil, Errorf(CodeSyntax, "unsupported binary operator")
	}
}

func (b binary) applyArithmetic(left, right Sequence, ctx Context) (Sequence, error) {
	if ctx.Compat() {
		// 1.0 semantics: only the first item of each operand is used
		if len(left) > 1 {
			left = left[:1]
		}
		if len(right) > 1 {
			right = right[:1]
		}
	}
	x, err := atomizeSingle(left, "arithmetic operand")
	if err != nil {
		return nil, err
	}
	y, err := atomizeSingle(right, "arithmetic operand")
	if err != nil {
		return nil, err
	}
	if ctx.Compat() {
		// 1.0 semantics: operands coerce to numbers, absent becomes NaN
		if x == nil {
			x = doubleItem(nan())
		} else if x, err = castItem(x, typeDouble); err != nil {
			x = doubleItem(nan())
		}
		if y == nil {
			y = doubleItem(nan())
		} else if y, err = castItem(y, typeDouble); err != nil {
			y = doubleItem(nan())
		}
	}
	if x == nil || y == nil {
		return nil, nil
	}
	res, err := arithmetic(b.op, x, y, ctx)
	if err != nil {
		return nil, err
	}
	return Sequence{res}, nil
}

func (b binary) applyValueComparison(left, right Sequence, ctx Context) (Sequence, error) {
	x, err := atomizeSingle(left, "comparison operand")
	if err != nil {
		return nil, err
	}
	y, err := atomizeSingle(right, "comparison operand")
	if err != nil {
		return nil, err
	}
	if x == nil || y == nil {
		return nil, nil
	}
	ok, err := compareValues(b.op, x, y, ctx)
	if err != nil {
		return nil, err
	}
	return Singleton(ok), nil
}

func (b binary) applyNodeComparison(left, right Sequence) (Sequence, error) {
	node := func(seq Sequence) (xml.Node, error) {
		if seq.Empty() {
			return nil, nil
		}
		if !seq.Singleton() || seq[0].Node() == nil {
			return nil, Errorf(CodeOperandType, "node comparison requires single nodes")
		}
		return seq[0].Node(), nil
	}
	x, err := node(left)
	if err != nil {
		return nil, err
	}
	y, err := node(right)
	if err != nil {
		return nil, err
	}
	if x == nil || y == nil {
		return nil, nil
	}
	switch b.op {
	case opIs:
		return Singleton(x.Identity() == y.Identity()), nil
	case opBefore:
		return Singleton(xml.Before(x, y)), nil
	default:
		return Singleton(xml.After(x, y)), nil
	}
}

func nan() float64 {
	var zero float64
	return zero / zero
}

// logical is and/or with short circuit on the effective boolean value
// of the left operand.
type logical struct {
	op    rune
	left  Expr
	right Expr
}

func (l logical) find(ctx Context) (Sequence, error) {
	left, err := l.left.find(ctx)
	if err != nil {
		return nil, err
	}
	ok, err := EffectiveBooleanValue(left)
	if err != nil {
		return nil, err
	}
	if l.op == opAnd && !ok {
		return Singleton(false), nil
	}
	if l.op == opOr && ok {
		return Singleton(true), nil
	}
	right, err := l.right.find(ctx)
	if err != nil {
		return nil, err
	}
	ok, err = EffectiveBooleanValue(right)
	if err != nil {
		return nil, err
	}
	return Singleton(ok), nil
}

type unary struct {
	op   rune
	expr Expr
	span Span
}

func (u unary) find(ctx Context) (Sequence, error) {
	seq, err := u.expr.find(ctx)
	if err != nil {
		return nil, err
	}
	item, err := atomizeSingle(seq, "unary operand")
	if err != nil || item == nil {
		return nil, spanned(err, u.span)
	}
	if u.op == opAdd {
		return Sequence{item}, nil
	}
	res, err := arithmetic(opSub, createTyped(int64(0), typeInteger), item, ctx)
	if err != nil {
		return nil, spanned(err, u.span)
	}
	return Sequence{res}, nil
}

func nodesOnly(seq Sequence, span Span) ([]xml.Node, error) {
	var nodes []xml.Node
	for i := range seq {
		n := seq[i].Node()
		if n == nil {
			return nil, errorAt(CodeOperandType, span, "set operation on non node sequence")
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

type unionExpr struct {
	all  []Expr
	span Span
}

func (u unionExpr) find(ctx Context) (Sequence, error) {
	var out Sequence
	for i := range u.all {
		seq, err := u.all[i].find(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := nodesOnly(seq, u.span); err != nil {
			return nil, err
		}
		out.Concat(seq)
	}
	return out.Sorted(), nil
}

type intersectExpr struct {
	all  []Expr
	span Span
}

func (e intersectExpr) find(ctx Context) (Sequence, error) {
	left, err := e.all[0].find(ctx)
	if err != nil {
		return nil, err
	}
	right, err := e.all[1].find(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := nodesOnly(left, e.span); err != nil {
		return nil, err
	}
	if _, err := nodesOnly(right, e.span); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	for i := range right {
		seen[right[i].Node().Identity()] = struct{}{}
	}
	var out Sequence
	for i := range left {
		if _, ok := seen[left[i].Node().Identity()]; ok {
			out.Append(left[i])
		}
	}
	return out.Sorted(), nil
}

type exceptExpr struct {
	all  []Expr
	span Span
}

func (e exceptExpr) find(ctx Context) (Sequence, error) {
	left, err := e.all[0].find(ctx)
	if err != nil {
		return nil, err
	}
	right, err := e.all[1].find(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := nodesOnly(left, e.span); err != nil {
		return nil, err
	}
	if _, err := nodesOnly(right, e.span); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	for i := range right {
		seen[right[i].Node().Identity()] = struct{}{}
	}
	var out Sequence
	for i := range left {
		if _, ok := seen[left[i].Node().Identity()]; !ok {
			out.Append(left[i])
		}
	}
	return out.Sorted(), nil
}

// filter applies a predicate: the candidate becomes the context item,
// position runs 1..N. A numeric result selects by position, anything
// else goes through the effective boolean value.
type filter struct {
	expr  Expr
	check Expr
}

func (f filter) find(ctx Context) (Sequence, error) {
	if at, ok := constantPosition(f.check); ok {
		// [k] with a literal position stops the producer as soon as
		// the wanted item arrives
		if at < 1 {
			return nil, nil
		}
		var (
			pos int64
			out Sequence
		)
		for item, err := range iterate(f.expr, ctx) {
			if err != nil {
				return nil, err
			}
			pos++
			if pos == at {
				out.Append(item)
				break
			}
		}
		return out, nil
	}
	list, err := f.expr.find(ctx)
	if err != nil {
		return nil, err
	}
	return f.sieve(list, ctx)
}

func (f filter) sieve(list Sequence, ctx Context) (Sequence, error) {
	var out Sequence
	for i := range list {
		sub := ctx.Sub(list[i], i+1, list.Len())
		res, err := f.check.find(sub)
		if err != nil {
			return nil, err
		}
		keep, err := predicateMatch(res, i+1)
		if err != nil {
			return nil, err
		}
		if keep {
			out.Append(list[i])
		}
	}
	return out, nil
}

func constantPosition(check Expr) (int64, bool) {
	n, ok := check.(number)
	if !ok {
		return 0, false
	}
	if itemType(n.item) != typeInteger {
		return 0, false
	}
	at, err := asInt(n.item)
	return at, err == nil
}

func predicateMatch(res Sequence, pos int) (bool, error) {
	if res.Singleton() {
		kind := itemType(res[0])
		if kind != nil && kind != typeBoolean && kind != typeUntypedAtomic && isNumeric(kind) {
			cmp, err := compareNumbers(res[0], integerItem(int64(pos)))
			if err != nil {
				return false, err
			}
			return cmp == 0, nil
		}
	}
	return EffectiveBooleanValue(res)
}

type conditional struct {
	test Expr
	csq  Expr
	alt  Expr
}

func (c conditional) find(ctx Context) (Sequence, error) {
	res, err := c.test.find(ctx)
	if err != nil {
		return nil, err
	}
	ok, err := EffectiveBooleanValue(res)
	if err != nil {
		return nil, err
	}
	if ok {
		return c.csq.find(ctx)
	}
	return c.alt.find(ctx)
}

type binding struct {
	ident string
	expr  Expr
}

type loop struct {
	binds []binding
	body  Expr
}

func (o loop) find(ctx Context) (Sequence, error) {
	return forBind(ctx, o.binds, o.body)
}

func forBind(ctx Context, binds []binding, body Expr) (Sequence, error) {
	if len(binds) == 0 {
		return body.find(ctx)
	}
	seq, err := binds[0].expr.find(ctx)
	if err != nil {
		return nil, err
	}
	var out Sequence
	for i := range seq {
		sub := ctx.Nest()
		sub.Define(binds[0].ident, Sequence{seq[i]})
		res, err := forBind(sub, binds[1:], body)
		if err != nil {
			return nil, err
		}
		out.Concat(res)
	}
	return out, nil
}

type letExpr struct {
	binds []binding
	body  Expr
}

func (e letExpr) find(ctx Context) (Sequence, error) {
	sub := ctx
	for _, b := range e.binds {
		sub = sub.Nest()
		sub.DefineLazy(b.ident, b.expr)
	}
	return e.body.find(sub)
}

type quantified struct {
	binds []binding
	test  Expr
	every bool
}

func (q quantified) find(ctx Context) (Sequence, error) {
	ok, err := q.iterate(ctx, q.binds)
	if err != nil {
		return nil, err
	}
	return Singleton(ok), nil
}

func (q quantified) iterate(ctx Context, binds []binding) (bool, error) {
	if len(binds) == 0 {
		res, err := q.test.find(ctx)
		if err != nil {
			return false, err
		}
		return EffectiveBooleanValue(res)
	}
	for item, err := range iterate(binds[0].expr, ctx) {
		if err != nil {
			return false, err
		}
		sub := ctx.Nest()
		sub.Define(binds[0].ident, Sequence{item})
		ok, err := q.iterate(sub, binds[1:])
		if err != nil {
			return false, err
		}
		if ok && !q.every {
			return true, nil
		}
		if !ok && q.every {
			return false, nil
		}
	}
	return q.every, nil
}

type castExpr struct {
	expr     Expr
	target   *AtomicType
	optional bool
	span     Span
}

func (c castExpr) find(ctx Context) (Sequence, error) {
	seq, err := c.expr.find(ctx)
	if err != nil {
		return nil, err
	}
	item, err := atomizeSingle(seq, "cast operand")
	if err != nil {
		return nil, spanned(err, c.span)
	}
	if item == nil {
		if c.optional {
			return nil, nil
		}
		return nil, errorAt(CodeOperandType, c.span, "cast of an empty sequence to %s", c.target)
	}
	res, err := castItem(item, c.target)
	if err != nil {
		return nil, spanned(err, c.span)
	}
	return Sequence{res}, nil
}

type castableExpr struct {
	expr     Expr
	target   *AtomicType
	optional bool
}

func (c castableExpr) find(ctx Context) (Sequence, error) {
	seq, err := c.expr.find(ctx)
	if err != nil {
		return nil, err
	}
	atoms, err := atomize(seq)
	if err != nil {
		return nil, err
	}
	if atoms.Empty() {
		return Singleton(c.optional), nil
	}
	if !atoms.Singleton() {
		return Singleton(false), nil
	}
	return Singleton(castable(atoms[0], c.target)), nil
}

type instanceExpr struct {
	expr Expr
	st   SequenceType
}

func (i instanceExpr) find(ctx Context) (Sequence, error) {
	seq, err := i.expr.find(ctx)
	if err != nil {
		return nil, err
	}
	return Singleton(i.st.Matches(seq)), nil
}

type treatExpr struct {
	expr Expr
	st   SequenceType
	span Span
}

func (t treatExpr) find(ctx Context) (Sequence, error) {
	seq, err := t.expr.find(ctx)
	if err != nil {
		return nil, err
	}
	if !t.st.Matches(seq) {
		return nil, errorAt(CodeTreatAs, t.span, "sequence does not match %s", t.st)
	}
	return seq, nil
}

type mapEntry struct {
	key   Expr
	value Expr
}

type mapCtor struct {
	entries []mapEntry
	span    Span
}

func (m mapCtor) find(ctx Context) (Sequence, error) {
	var (
		pairs []mapPair
		seen  = make(map[string]struct{})
	)
	for _, e := range m.entries {
		kseq, err := e.key.find(ctx)
		if err != nil {
			return nil, err
		}
		key, err := atomizeSingle(kseq, "map key")
		if err != nil {
			return nil, spanned(err, m.span)
		}
		if key == nil {
			return nil, errorAt(CodeOperandType, m.span, "map key is an empty sequence")
		}
		id, err := mapKey(key)
		if err != nil {
			return nil, spanned(err, m.span)
		}
		if _, ok := seen[id]; ok {
			str, _ := itemString(key)
			return nil, errorAt(CodeDupKey, m.span, "%s: duplicate map key", str)
		}
		seen[id] = struct{}{}
		val, err := e.value.find(ctx)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, mapPair{key: key, value: val})
	}
	item, err := newMap(pairs)
	if err != nil {
		return nil, spanned(err, m.span)
	}
	return Sequence{item}, nil
}

type arrayCtor struct {
	all []Expr
	// flatten marks the curly form: array { E } makes one member per
	// item of E's result
	flatten bool
}

func (a arrayCtor) find(ctx Context) (Sequence, error) {
	var members []Sequence
	for i := range a.all {
		seq, err := a.all[i].find(ctx)
		if err != nil {
			return nil, err
		}
		if a.flatten {
			for j := range seq {
				members = append(members, Sequence{seq[j]})
			}
		} else {
			members = append(members, seq)
		}
	}
	return Sequence{newArray(members)}, nil
}

type lookupKey struct {
	name string
	at   int64
	expr Expr
	wild bool
}

// lookupExpr is the "?" operator on maps and arrays; a nil expr means
// the unary form applied to the context item.
type lookupExpr struct {
	expr Expr
	key  lookupKey
	span Span
}

func (l lookupExpr) find(ctx Context) (Sequence, error) {
	var (
		left Sequence
		err  error
	)
	if l.expr == nil {
		left, err = current{}.find(ctx)
	} else {
		left, err = l.expr.find(ctx)
	}
	if err != nil {
		return nil, err
	}
	var out Sequence
	for i := range left {
		res, err := l.lookup(left[i], ctx)
		if err != nil {
			return nil, spanned(err, l.span)
		}
		out.Concat(res)
	}
	return out, nil
}

func (l lookupExpr) lookup(item Item, ctx Context) (Sequence, error) {
	keys, err := l.keys(item, ctx)
	if err != nil {
		return nil, err
	}
	var out Sequence
	switch it := item.(type) {
	case mapItem:
		for _, k := range keys {
			if res, ok := it.get(k); ok {
				out.Concat(res)
			}
		}
	case arrayItem:
		for _, k := range keys {
			at, err := asInt(k)
			if err != nil {
				return nil, Errorf(CodeOperandType, "array lookup requires an integer key")
			}
			res, err := it.get(int(at))
			if err != nil {
				return nil, err
			}
			out.Concat(res)
		}
	default:
		return nil, Errorf(CodeOperandType, "lookup on %T", item)
	}
	return out, nil
}

func (l lookupExpr) keys(item Item, ctx Context) ([]Item, error) {
	if l.key.wild {
		switch it := item.(type) {
		case mapItem:
			var keys []Item
			for _, p := range it.pairs {
				keys = append(keys, p.key)
			}
			return keys, nil
		case arrayItem:
			var keys []Item
			for i := range it.members {
				keys = append(keys, integerItem(int64(i+1)))
			}
			return keys, nil
		default:
			return nil, Errorf(CodeOperandType, "lookup on %T", item)
		}
	}
	if l.key.expr != nil {
		seq, err := l.key.expr.find(ctx)
		if err != nil {
			return nil, err
		}
		atoms, err := atomize(seq)
		if err != nil {
			return nil, err
		}
		return atoms, nil
	}
	if l.key.name != "" {
		return []Item{stringItem(l.key.name)}, nil
	}
	return []Item{integerItem(l.key.at)}, nil
}

type namedFuncRef struct {
	name  xml.QName
	arity int
	span  Span
}

func (n namedFuncRef) find(ctx Context) (Sequence, error) {
	fn, err := ctx.rt.builtins.lookup(n.name, n.arity)
	if err != nil {
		return nil, spanned(err, n.span)
	}
	item := funcItem{
		name:  n.name,
		arity: n.arity,
		call: func(callCtx Context, args []Sequence) (Sequence, error) {
			return fn.invoke(callCtx, args)
		},
	}
	return Sequence{item}, nil
}

type inlineFunc struct {
	params []string
	body   Expr
}

func (f inlineFunc) find(ctx Context) (Sequence, error) {
	item := funcItem{
		arity: len(f.params),
		call: func(_ Context, args []Sequence) (Sequence, error) {
			if len(args) != len(f.params) {
				return nil, Errorf(CodeOperandType, "anonymous function expects %d argument(s)", len(f.params))
			}
			sub := ctx.Nest()
			for i, p := range f.params {
				sub.Define(p, args[i])
			}
			return f.body.find(sub)
		},
	}
	return Sequence{item}, nil
}

type call struct {
	name xml.QName
	args []Expr
	span Span
}

func (c call) find(ctx Context) (Sequence, error) {
	fn, err := ctx.rt.builtins.lookup(c.name, len(c.args))
	if err != nil {
		return nil, spanned(err, c.span)
	}
	args, err := evalArgs(c.args, ctx)
	if err != nil {
		return nil, err
	}
	res, err := fn.invoke(ctx, args)
	if err != nil {
		return nil, spanned(err, c.span)
	}
	return res, nil
}

func evalArgs(args []Expr, ctx Context) ([]Sequence, error) {
	var out []Sequence
	for i := range args {
		seq, err := args[i].find(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, seq)
	}
	return out, nil
}

// dynCall applies an arbitrary expression as a function: function
// items, and in 3.1 maps and arrays, are callable.
type dynCall struct {
	expr Expr
	args []Expr
	span Span
}

func (d dynCall) find(ctx Context) (Sequence, error) {
	seq, err := d.expr.find(ctx)
	if err != nil {
		return nil, err
	}
	if !seq.Singleton() {
		return nil, errorAt(CodeOperandType, d.span, "dynamic call on a sequence of %d items", seq.Len())
	}
	args, err := evalArgs(d.args, ctx)
	if err != nil {
		return nil, err
	}
	res, err := applyFunction(seq[0], args, ctx)
	return res, spanned(err, d.span)
}

func applyFunction(item Item, args []Sequence, ctx Context) (Sequence, error) {
	switch fn := item.(type) {
	case funcItem:
		if len(args) != fn.arity {
			return nil, Errorf(CodeOperandType, "%s expects %d argument(s), got %d", fn, fn.arity, len(args))
		}
		return fn.call(ctx, args)
	case mapItem:
		if len(args) != 1 {
			return nil, Errorf(CodeOperandType, "map lookup expects one argument")
		}
		key, err := atomizeSingle(args[0], "map key")
		if err != nil || key == nil {
			return nil, err
		}
		res, _ := fn.get(key)
		return res, nil
	case arrayItem:
		if len(args) != 1 {
			return nil, Errorf(CodeOperandType, "array lookup expects one argument")
		}
		key, err := atomizeSingle(args[0], "array index")
		if err != nil || key == nil {
			return nil, err
		}
		at, err := asInt(key)
		if err != nil {
			return nil, err
		}
		return fn.get(int(at))
	default:
		return nil, Errorf(CodeOperandType, "%T is not callable", item)
	}
}
