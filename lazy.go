package xpath

import (
	"iter"
)

// lazyExpr is implemented by producers that can yield items one at a
// time, letting positional predicates and quantifiers stop early
// instead of materializing the whole sequence. Function calls,
// fn:head included, evaluate their arguments in full before the call.
type lazyExpr interface {
	iterate(Context) iter.Seq2[Item, error]
}

// iterate returns a restartable item stream for any expression,
// falling back to materializing when the node has no lazy form.
func iterate(e Expr, ctx Context) iter.Seq2[Item, error] {
	if l, ok := e.(lazyExpr); ok {
		return l.iterate(ctx)
	}
	return func(yield func(Item, error) bool) {
		seq, err := e.find(ctx)
		if err != nil {
			yield(nil, err)
			return
		}
		for i := range seq {
			if !yield(seq[i], nil) {
				return
			}
		}
	}
}

func (r rangeExpr) iterate(ctx Context) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		lo, err := rangeBound(r.left, ctx)
		if err != nil {
			yield(nil, spanned(err, r.span))
			return
		}
		hi, err := rangeBound(r.right, ctx)
		if err != nil {
			yield(nil, spanned(err, r.span))
			return
		}
		if lo == nil || hi == nil {
			return
		}
		var (
			m, _ = asInt(lo)
			n, _ = asInt(hi)
		)
		for i := m; i <= n; i++ {
			if !yield(integerItem(i), nil) {
				return
			}
		}
	}
}

func (s sequenceExpr) iterate(ctx Context) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		for i := range s.all {
			for item, err := range iterate(s.all[i], ctx) {
				if !yield(item, err) {
					return
				}
				if err != nil {
					return
				}
			}
		}
	}
}

func (o loop) iterate(ctx Context) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		o.stream(ctx, o.binds, yield)
	}
}

func (o loop) stream(ctx Context, binds []binding, yield func(Item, error) bool) bool {
	if len(binds) == 0 {
		for item, err := range iterate(o.body, ctx) {
			if !yield(item, err) {
				return false
			}
			if err != nil {
				return false
			}
		}
		return true
	}
	for item, err := range iterate(binds[0].expr, ctx) {
		if err != nil {
			yield(nil, err)
			return false
		}
		sub := ctx.Nest()
		sub.Define(binds[0].ident, Sequence{item})
		if !o.stream(sub, binds[1:], yield) {
			return false
		}
	}
	return true
}

