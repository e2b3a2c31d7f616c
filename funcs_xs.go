package xpath

// registerConstructors exposes one constructor function per atomic
// type: xs:integer("42"), xs:date("2024-02-29") and so on.
func registerConstructors(lib *FuncLib) {
	for local, t := range atomicTypes {
		if t == typeAnyAtomic || t == typeNotation {
			continue
		}
		target := t
		lib.add(schemaNS, local, 1, 1,
			[]SequenceType{stAtomOpt}, stAtomOpt,
			func(_ Context, args []Sequence) (Sequence, error) {
				if args[0].Empty() {
					return nil, nil
				}
				res, err := castItem(args[0][0], target)
				if err != nil {
					return nil, err
				}
				return Sequence{res}, nil
			})
	}
}
