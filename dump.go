package xpath

import (
	"fmt"
	"io"
	"strings"
)

// Debug renders the compiled tree of a query in a compact prefix
// notation, one node per call.
func Debug(q *Query) string {
	var str strings.Builder
	debugExpr(&str, q.expr)
	return str.String()
}

func debugExpr(w io.Writer, expr Expr) {
	switch v := expr.(type) {
	case root:
		io.WriteString(w, "root")
	case current:
		io.WriteString(w, "current")
	case step:
		debugGroup(w, "step", v.curr, v.next)
	case simpleMap:
		debugGroup(w, "map", v.left, v.right)
	case axisExpr:
		io.WriteString(w, "axis(")
		io.WriteString(w, v.kind)
		io.WriteString(w, ", ")
		debugExpr(w, v.test)
		io.WriteString(w, ")")
	case nameTest:
		io.WriteString(w, "name(")
		switch {
		case v.wildLocal && v.wildSpace:
			io.WriteString(w, "*")
		case v.wildSpace:
			io.WriteString(w, "*:"+v.name.Name)
		case v.wildLocal:
			io.WriteString(w, v.name.Space+":*")
		default:
			io.WriteString(w, v.name.QualifiedName())
		}
		io.WriteString(w, ")")
	case kindTest:
		fmt.Fprintf(w, "kind(%s)", v.kind)
	case literal:
		fmt.Fprintf(w, "literal(%s)", v.value)
	case number:
		str, _ := itemString(v.item)
		fmt.Fprintf(w, "number(%s)", str)
	case varRef:
		fmt.Fprintf(w, "variable(%s)", v.ident)
	case value:
		io.WriteString(w, "value(")
		var parts []string
		for i := range v.seq {
			parts = append(parts, formatItem(v.seq[i]))
		}
		io.WriteString(w, strings.Join(parts, ", "))
		io.WriteString(w, ")")
	case sequenceExpr:
		debugGroup(w, "sequence", v.all...)
	case rangeExpr:
		debugGroup(w, "range", v.left, v.right)
	case binary:
		io.WriteString(w, "binary(")
		io.WriteString(w, debugOp(v.op))
		io.WriteString(w, ", ")
		debugExpr(w, v.left)
		io.WriteString(w, ", ")
		debugExpr(w, v.right)
		io.WriteString(w, ")")
	case logical:
		debugGroup(w, debugOp(v.op), v.left, v.right)
	case unary:
		debugGroup(w, "reverse", v.expr)
	case unionExpr:
		debugGroup(w, "union", v.all...)
	case intersectExpr:
		debugGroup(w, "intersect", v.all...)
	case exceptExpr:
		debugGroup(w, "except", v.all...)
	case filter:
		debugGroup(w, "filter", v.expr, v.check)
	case conditional:
		debugGroup(w, "if", v.test, v.csq, v.alt)
	case loop:
		io.WriteString(w, "for(")
		debugBindings(w, v.binds)
		io.WriteString(w, ", ")
		debugExpr(w, v.body)
		io.WriteString(w, ")")
	case letExpr:
		io.WriteString(w, "let(")
		debugBindings(w, v.binds)
		io.WriteString(w, ", ")
		debugExpr(w, v.body)
		io.WriteString(w, ")")
	case quantified:
		if v.every {
			io.WriteString(w, "every(")
		} else {
			io.WriteString(w, "some(")
		}
		debugBindings(w, v.binds)
		io.WriteString(w, ", satisfies(")
		debugExpr(w, v.test)
		io.WriteString(w, "))")
	case castExpr:
		fmt.Fprintf(w, "cast(%s, ", v.target)
		debugExpr(w, v.expr)
		io.WriteString(w, ")")
	case castableExpr:
		fmt.Fprintf(w, "castable(%s, ", v.target)
		debugExpr(w, v.expr)
		io.WriteString(w, ")")
	case treatExpr:
		fmt.Fprintf(w, "treat(%s, ", v.st)
		debugExpr(w, v.expr)
		io.WriteString(w, ")")
	case instanceExpr:
		fmt.Fprintf(w, "instance(%s, ", v.st)
		debugExpr(w, v.expr)
		io.WriteString(w, ")")
	case mapCtor:
		io.WriteString(w, "map{")
		for i, entry := range v.entries {
			if i > 0 {
				io.WriteString(w, ", ")
			}
			debugExpr(w, entry.key)
			io.WriteString(w, ": ")
			debugExpr(w, entry.value)
		}
		io.WriteString(w, "}")
	case arrayCtor:
		debugGroup(w, "array", v.all...)
	case lookupExpr:
		io.WriteString(w, "lookup(")
		if v.expr != nil {
			debugExpr(w, v.expr)
		} else {
			io.WriteString(w, "current")
		}
		io.WriteString(w, ", ")
		switch {
		case v.key.wild:
			io.WriteString(w, "*")
		case v.key.expr != nil:
			debugExpr(w, v.key.expr)
		case v.key.name != "":
			io.WriteString(w, v.key.name)
		default:
			fmt.Fprintf(w, "%d", v.key.at)
		}
		io.WriteString(w, ")")
	case namedFuncRef:
		fmt.Fprintf(w, "function(%s#%d)", v.name.QualifiedName(), v.arity)
	case inlineFunc:
		io.WriteString(w, "function(")
		io.WriteString(w, strings.Join(v.params, ", "))
		io.WriteString(w, ", ")
		debugExpr(w, v.body)
		io.WriteString(w, ")")
	case call:
		io.WriteString(w, "call(")
		io.WriteString(w, v.name.QualifiedName())
		for i := range v.args {
			io.WriteString(w, ", ")
			debugExpr(w, v.args[i])
		}
		io.WriteString(w, ")")
	case dynCall:
		debugGroup(w, "apply", append([]Expr{v.expr}, v.args...)...)
	default:
		fmt.Fprintf(w, "unknown(%T)", v)
	}
}

func debugGroup(w io.Writer, label string, exprs ...Expr) {
	io.WriteString(w, label)
	io.WriteString(w, "(")
	for i := range exprs {
		if i > 0 {
			io.WriteString(w, ", ")
		}
		debugExpr(w, exprs[i])
	}
	io.WriteString(w, ")")
}

func debugBindings(w io.Writer, binds []binding) {
	for i, b := range binds {
		if i > 0 {
			io.WriteString(w, ", ")
		}
		io.WriteString(w, "(")
		io.WriteString(w, b.ident)
		io.WriteString(w, ", ")
		debugExpr(w, b.expr)
		io.WriteString(w, ")")
	}
}

func debugOp(op rune) string {
	switch op {
	case opAdd:
		return "add"
	case opSub:
		return "subtract"
	case opMul:
		return "multiply"
	case opDiv:
		return "divide"
	case opIdiv:
		return "integer-divide"
	case opMod:
		return "modulo"
	case opEq:
		return "eq"
	case opNe:
		return "ne"
	case opLt:
		return "lt"
	case opLe:
		return "le"
	case opGt:
		return "gt"
	case opGe:
		return "ge"
	case opValEq:
		return "value-eq"
	case opValNe:
		return "value-ne"
	case opValLt:
		return "value-lt"
	case opValLe:
		return "value-le"
	case opValGt:
		return "value-gt"
	case opValGe:
		return "value-ge"
	case opAnd:
		return "and"
	case opOr:
		return "or"
	case opIs:
		return "identity"
	case opBefore:
		return "before"
	case opAfter:
		return "after"
	case opConcat:
		return "concat"
	default:
		return "op"
	}
}
