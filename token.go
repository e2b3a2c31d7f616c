package xpath

import (
	"fmt"
	"sync"
)

// Version selects the grammar dialect and the builtin library. Later
// versions extend earlier ones by registering more token classes.
type Version int8

const (
	Version10 Version = 10
	Version20 Version = 20
	Version30 Version = 30
	Version31 Version = 31

	VersionDefault = Version31
)

func (v Version) String() string {
	switch v {
	case Version10:
		return "1.0"
	case Version20:
		return "2.0"
	case Version30:
		return "3.0"
	case Version31:
		return "3.1"
	default:
		return "unknown"
	}
}

// Binding powers, lowest to highest, following the XPath operator
// precedence table.
const (
	powLowest = iota * 10
	powOr
	powAnd
	powCmp
	powConcat
	powRange
	powAdd
	powMul
	powUnion
	powIntersect
	powInstance
	powTreat
	powCastable
	powCast
	powArrow
	powPrefix
	powBang
	powStep
	powPred
	powCall
	powHighest
)

type (
	nudFunc func(*Compiler) (Expr, error)
	ledFunc func(*Compiler, Expr) (Expr, error)
)

// tokenClass is one entry of the token table: the symbol it reacts to,
// its binding powers and its two semantic actions. A symbol without a
// nud can not start an expression, a symbol without a led can not
// continue one.
type tokenClass struct {
	symbol rune
	lbp    int
	rbp    int
	nud    nudFunc
	led    ledFunc
}

// Registry is the token table of one grammar dialect. Dialects are
// built additively: each version walks the chain of registrations of
// the versions before it, then layers its own.
type Registry struct {
	version Version
	classes map[rune]*tokenClass
}

func newRegistry(version Version) *Registry {
	return &Registry{
		version: version,
		classes: make(map[rune]*tokenClass),
	}
}

// register inserts or overrides the class of symbol. rbp sets the
// power used by led to parse its right operand; pass lbp for left
// associativity, lbp-1 for right associativity.
func (r *Registry) register(symbol rune, lbp, rbp int, nud nudFunc, led ledFunc) {
	r.classes[symbol] = &tokenClass{
		symbol: symbol,
		lbp:    lbp,
		rbp:    rbp,
		nud:    nud,
		led:    led,
	}
}

func (r *Registry) prefix(symbol rune, nud nudFunc) {
	cls := r.lookup(symbol)
	if cls == nil {
		r.register(symbol, 0, 0, nud, nil)
		return
	}
	cls.nud = nud
}

func (r *Registry) infix(symbol rune, lbp int, led ledFunc) {
	cls := r.lookup(symbol)
	if cls == nil {
		r.register(symbol, lbp, lbp, nil, led)
		return
	}
	cls.lbp = lbp
	cls.rbp = lbp
	cls.led = led
}

func (r *Registry) lookup(symbol rune) *tokenClass {
	return r.classes[symbol]
}

func (r *Registry) power(symbol rune) int {
	cls := r.classes[symbol]
	if cls == nil {
		return powLowest
	}
	return cls.lbp
}

var (
	registries sync.Map
)

// registryFor returns the token table of version, building it on first
// use by walking the registration chain.
func registryFor(version Version) (*Registry, error) {
	switch version {
	case Version10, Version20, Version30, Version31:
	default:
		return nil, fmt.Errorf("%s: unsupported xpath version", version)
	}
	if reg, ok := registries.Load(version); ok {
		return reg.(*Registry), nil
	}
	reg := newRegistry(version)
	register10(reg)
	if version >= Version20 {
		register20(reg)
	}
	if version >= Version30 {
		register30(reg)
	}
	if version >= Version31 {
		register31(reg)
	}
	registries.Store(version, reg)
	return reg, nil
}
