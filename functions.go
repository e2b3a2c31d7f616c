package xpath

import (
	"fmt"
	"sync"

	"github.com/midbel/distance"
	"github.com/midbel/xpath/environ"
	"github.com/midbel/xpath/xml"
)

type BuiltinFunc func(Context, []Sequence) (Sequence, error)

// Builtin is one registered function: name, arity range, declared
// signature and implementation. Arguments are checked and converted
// against the signature before the implementation runs.
type Builtin struct {
	Name    xml.QName
	MinArgs int
	MaxArgs int // negative means variadic
	Args    []SequenceType
	Result  SequenceType
	Call    BuiltinFunc

	// CtxItem makes the zero argument form default to the context
	// item, the way string() or number() do.
	CtxItem bool
}

func (b *Builtin) argType(i int) SequenceType {
	if i < len(b.Args) {
		return b.Args[i]
	}
	if len(b.Args) > 0 {
		return b.Args[len(b.Args)-1]
	}
	return stAny
}

func (b *Builtin) invoke(ctx Context, args []Sequence) (Sequence, error) {
	if b.CtxItem && len(args) == 0 {
		if ctx.Item == nil {
			return nil, Errorf(CodeNoContext, "%s: context item is absent", b.Name.QualifiedName())
		}
		args = []Sequence{{ctx.Item}}
	}
	if len(args) < b.MinArgs || (b.MaxArgs >= 0 && len(args) > b.MaxArgs) {
		return nil, Errorf(CodeUnknownFunc, "%s: invalid number of arguments", b.Name.QualifiedName())
	}
	for i := range args {
		conv, err := convertArgument(args[i], b.argType(i), ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name.QualifiedName(), err)
		}
		args[i] = conv
	}
	res, err := b.Call(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name.QualifiedName(), err)
	}
	return res, nil
}

// convertArgument applies the function conversion rules: atomization
// when an atomic type is expected, untyped casting, numeric and URI
// promotion, then the occurrence check.
func convertArgument(seq Sequence, st SequenceType, ctx Context) (Sequence, error) {
	if st.item == nil {
		if !seq.Empty() {
			return nil, Errorf(CodeOperandType, "empty sequence expected")
		}
		return seq, nil
	}
	if at, ok := st.item.(atomicItemType); ok {
		atoms, err := atomize(seq)
		if err != nil {
			return nil, err
		}
		for i := range atoms {
			kind := itemType(atoms[i])
			switch {
			case kind == typeUntypedAtomic && at.kind != typeAnyAtomic && at.kind != typeUntypedAtomic:
				atoms[i], err = castItem(atoms[i], at.kind)
			case kind.Derives(at.kind):
			case isNumeric(at.kind) && isNumeric(kind) && kind.Promotes(at.kind):
				atoms[i], err = castItem(atoms[i], at.kind)
			case kind == typeAnyURI && at.kind == typeString:
				atoms[i], err = castItem(atoms[i], typeString)
			}
			if err != nil {
				return nil, err
			}
		}
		seq = atoms
	}
	if !st.Matches(seq) {
		return nil, Errorf(CodeOperandType, "argument does not match %s", st)
	}
	return seq, nil
}

// FuncLib is the builtin registry of one version, keyed by expanded
// name with all arities of a name held together.
type FuncLib struct {
	env environ.Environ[[]*Builtin]
}

func newFuncLib() *FuncLib {
	return &FuncLib{
		env: environ.Empty[[]*Builtin](),
	}
}

func expandedName(name xml.QName) string {
	return fmt.Sprintf("{%s}%s", name.Uri, name.Name)
}

func (l *FuncLib) register(b *Builtin) {
	key := expandedName(b.Name)
	all, _ := l.env.Resolve(key)
	l.env.Define(key, append(all, b))
}

func (l *FuncLib) add(uri, local string, min, max int, args []SequenceType, result SequenceType, call BuiltinFunc) *Builtin {
	b := Builtin{
		Name:    xml.ExpandedName(local, "", uri),
		MinArgs: min,
		MaxArgs: max,
		Args:    args,
		Result:  result,
		Call:    call,
	}
	l.register(&b)
	return &b
}

// lookup resolves a function by expanded name and arity, raising
// XPST0017 with name suggestions when nothing matches.
func (l *FuncLib) lookup(name xml.QName, arity int) (*Builtin, error) {
	uri := name.Uri
	if uri == "" && name.Space == "" {
		uri = fnNS
	}
	key := expandedName(xml.ExpandedName(name.Name, "", uri))
	all, err := l.env.Resolve(key)
	if err != nil || len(all) == 0 {
		others := distance.Levenshtein(name.Name, l.localNames())
		if len(others) > 0 {
			return nil, Errorf(CodeUnknownFunc, "%s: unknown function, similar: %v", name.QualifiedName(), others)
		}
		return nil, Errorf(CodeUnknownFunc, "%s: unknown function", name.QualifiedName())
	}
	for _, b := range all {
		if arity >= b.MinArgs && (b.MaxArgs < 0 || arity <= b.MaxArgs) {
			return b, nil
		}
		if b.CtxItem && arity == 0 {
			return b, nil
		}
	}
	return nil, Errorf(CodeUnknownFunc, "%s: no overload accepts %d argument(s)", name.QualifiedName(), arity)
}

func (l *FuncLib) localNames() []string {
	var names []string
	for _, key := range l.env.Names() {
		all, err := l.env.Resolve(key)
		if err != nil || len(all) == 0 {
			continue
		}
		names = append(names, all[0].Name.Name)
	}
	return names
}

var libraries sync.Map

func builtinsFor(version Version) *FuncLib {
	if lib, ok := libraries.Load(version); ok {
		return lib.(*FuncLib)
	}
	lib := newFuncLib()
	registerCore10(lib)
	if version >= Version20 {
		registerCore20(lib)
		registerDateTime(lib)
		registerRegex(lib)
		registerConstructors(lib)
	}
	if version >= Version30 {
		registerCore30(lib)
		registerMath(lib)
	}
	if version >= Version31 {
		registerMapArray(lib)
	}
	libraries.Store(version, lib)
	return lib
}

// signature shorthands used by the registration files

var (
	stAny        = SequenceType{item: anyItemType{}, occ: OccZeroOrMore}
	stItem       = SequenceType{item: anyItemType{}, occ: OccOne}
	stItemOpt    = SequenceType{item: anyItemType{}, occ: OccOptional}
	stNodes      = SequenceType{item: nodeItemType{kind: xml.TypeNode}, occ: OccZeroOrMore}
	stNodeOpt    = SequenceType{item: nodeItemType{kind: xml.TypeNode}, occ: OccOptional}
	stFunc       = SequenceType{item: funcItemType{arity: -1}, occ: OccOne}
	stMap        = SequenceType{item: mapItemType{}, occ: OccOne}
	stMaps       = SequenceType{item: mapItemType{}, occ: OccZeroOrMore}
	stArray      = SequenceType{item: arrayItemType{}, occ: OccOne}
	stArrays     = SequenceType{item: arrayItemType{}, occ: OccZeroOrMore}
)

func atomicArg(kind *AtomicType, occ Occurrence) SequenceType {
	return SequenceType{
		item: atomicItemType{kind: kind},
		occ:  occ,
	}
}

var (
	stString     = atomicArg(typeString, OccOne)
	stStringOpt  = atomicArg(typeString, OccOptional)
	stStrings    = atomicArg(typeString, OccZeroOrMore)
	stBool       = atomicArg(typeBoolean, OccOne)
	stInteger    = atomicArg(typeInteger, OccOne)
	stIntegerOpt = atomicArg(typeInteger, OccOptional)
	stIntegers   = atomicArg(typeInteger, OccZeroOrMore)
	stDouble     = atomicArg(typeDouble, OccOne)
	stDoubleOpt  = atomicArg(typeDouble, OccOptional)
	stNumericOpt = atomicArg(typeAnyAtomic, OccOptional)
	stAtom       = atomicArg(typeAnyAtomic, OccOne)
	stAtomOpt    = atomicArg(typeAnyAtomic, OccOptional)
	stAtoms      = atomicArg(typeAnyAtomic, OccZeroOrMore)
)

// helpers shared by the builtin implementations

func argString(args []Sequence, i int) string {
	if i >= len(args) || args[i].Empty() {
		return ""
	}
	str, _ := itemString(args[i][0])
	return str
}

func argInt(args []Sequence, i int) (int64, bool) {
	if i >= len(args) || args[i].Empty() {
		return 0, false
	}
	v, err := asInt(args[i][0])
	return v, err == nil
}

func argItem(args []Sequence, i int) Item {
	if i >= len(args) || args[i].Empty() {
		return nil
	}
	return args[i][0]
}
