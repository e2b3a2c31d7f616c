package xpath

// analyze walks the compiled tree bottom up, resolving function
// references against the builtin library and variable references
// against the statically known scope. It reports the static errors
// evaluation would only hit when the faulty branch runs.
func analyze(expr Expr, scope map[string]bool, lib *FuncLib, compat bool) error {
	a := analyzer{
		lib:    lib,
		compat: compat,
	}
	return a.check(expr, scope)
}

type analyzer struct {
	lib    *FuncLib
	compat bool
}

func (a *analyzer) check(expr Expr, scope map[string]bool) error {
	switch e := expr.(type) {
	case varRef:
		if !scope[e.ident] {
			return errorAt(CodeUndefinedVar, e.span, "$%s: undefined variable", e.ident)
		}
	case call:
		if _, err := a.lib.lookup(e.name, len(e.args)); err != nil {
			return spanned(err, e.span)
		}
		return a.checkAll(scope, e.args...)
	case namedFuncRef:
		if _, err := a.lib.lookup(e.name, e.arity); err != nil {
			return spanned(err, e.span)
		}
	case dynCall:
		if err := a.check(e.expr, scope); err != nil {
			return err
		}
		return a.checkAll(scope, e.args...)
	case step:
		return a.checkAll(scope, e.curr, e.next)
	case simpleMap:
		return a.checkAll(scope, e.left, e.right)
	case axisExpr:
		return a.check(e.test, scope)
	case filter:
		return a.checkAll(scope, e.expr, e.check)
	case binary:
		if err := a.checkAll(scope, e.left, e.right); err != nil {
			return err
		}
		return a.checkArithmetic(e)
	case logical:
		return a.checkAll(scope, e.left, e.right)
	case unary:
		return a.check(e.expr, scope)
	case rangeExpr:
		return a.checkAll(scope, e.left, e.right)
	case unionExpr:
		return a.checkAll(scope, e.all...)
	case intersectExpr:
		return a.checkAll(scope, e.all...)
	case exceptExpr:
		return a.checkAll(scope, e.all...)
	case sequenceExpr:
		return a.checkAll(scope, e.all...)
	case conditional:
		return a.checkAll(scope, e.test, e.csq, e.alt)
	case loop:
		return a.checkBindings(e.binds, e.body, scope)
	case letExpr:
		return a.checkBindings(e.binds, e.body, scope)
	case quantified:
		return a.checkBindings(e.binds, e.test, scope)
	case castExpr:
		return a.check(e.expr, scope)
	case castableExpr:
		return a.check(e.expr, scope)
	case treatExpr:
		return a.check(e.expr, scope)
	case instanceExpr:
		return a.check(e.expr, scope)
	case mapCtor:
		for _, entry := range e.entries {
			if err := a.checkAll(scope, entry.key, entry.value); err != nil {
				return err
			}
		}
	case arrayCtor:
		return a.checkAll(scope, e.all...)
	case lookupExpr:
		if e.expr != nil {
			if err := a.check(e.expr, scope); err != nil {
				return err
			}
		}
		if e.key.expr != nil {
			return a.check(e.key.expr, scope)
		}
	case inlineFunc:
		inner := cloneScope(scope)
		for _, p := range e.params {
			inner[p] = true
		}
		return a.check(e.body, inner)
	}
	return nil
}

func (a *analyzer) checkAll(scope map[string]bool, exprs ...Expr) error {
	for i := range exprs {
		if err := a.check(exprs[i], scope); err != nil {
			return err
		}
	}
	return nil
}

func (a *analyzer) checkBindings(binds []binding, body Expr, scope map[string]bool) error {
	inner := cloneScope(scope)
	for _, b := range binds {
		if err := a.check(b.expr, inner); err != nil {
			return err
		}
		inner[b.ident] = true
	}
	return a.check(body, inner)
}

// checkArithmetic flags arithmetic whose operand types are known at
// compile time and provably wrong: the analysis is conservative and
// stays silent whenever a runtime type could still fit.
func (a *analyzer) checkArithmetic(e binary) error {
	if a.compat {
		// 1.0 coerces strings and booleans to numbers instead
		return nil
	}
	switch e.op {
	case opAdd, opSub, opMul, opDiv, opIdiv, opMod:
	default:
		return nil
	}
	bad := func(expr Expr) bool {
		switch expr.(type) {
		case literal:
			// a bare string literal has static type xs:string and
			// can never be an arithmetic operand
			return true
		case logical, castableExpr, instanceExpr:
			return true
		default:
			return false
		}
	}
	if bad(e.left) || bad(e.right) {
		return errorAt(CodeOperandType, e.span, "arithmetic on a non numeric operand")
	}
	return nil
}

func cloneScope(scope map[string]bool) map[string]bool {
	inner := make(map[string]bool, len(scope))
	for k, v := range scope {
		inner[k] = v
	}
	return inner
}

// staticType gives the compile time sequence type of an expression
// when one is decidable.
func staticType(expr Expr) (SequenceType, bool) {
	switch e := expr.(type) {
	case literal:
		return atomicArg(typeString, OccOne), true
	case number:
		return atomicArg(itemType(e.item), OccOne), true
	case logical:
		return atomicArg(typeBoolean, OccOne), true
	case castableExpr, instanceExpr:
		return atomicArg(typeBoolean, OccOne), true
	case castExpr:
		occ := OccOne
		if e.optional {
			occ = OccOptional
		}
		return atomicArg(e.target, occ), true
	case rangeExpr:
		return atomicArg(typeInteger, OccZeroOrMore), true
	case unionExpr, intersectExpr, exceptExpr:
		return stNodes, true
	case treatExpr:
		return e.st, true
	default:
		return SequenceType{}, false
	}
}
