package xpath

import (
	"slices"
)

func registerMapArray(lib *FuncLib) {
	lib.add(fnNS, "sort", 1, 3, []SequenceType{stAny, stStringOpt, stFunc}, stAny, fnSort)
	lib.add(fnNS, "contains-token", 2, 3, []SequenceType{stStrings, stString, stString}, stBool, fnContainsToken)

	lib.add(mapNS, "size", 1, 1, []SequenceType{stMap}, stInteger, mapSize)
	lib.add(mapNS, "keys", 1, 1, []SequenceType{stMap}, stAtoms, mapKeys)
	lib.add(mapNS, "contains", 2, 2, []SequenceType{stMap, stAtom}, stBool, mapContains)
	lib.add(mapNS, "get", 2, 2, []SequenceType{stMap, stAtom}, stAny, mapGet)
	lib.add(mapNS, "put", 3, 3, []SequenceType{stMap, stAtom, stAny}, stMap, mapPut)
	lib.add(mapNS, "entry", 2, 2, []SequenceType{stAtom, stAny}, stMap, mapEntryFn)
	lib.add(mapNS, "remove", 2, 2, []SequenceType{stMap, stAtoms}, stMap, mapRemove)
	lib.add(mapNS, "merge", 1, 2, []SequenceType{stMaps, stMap}, stMap, mapMerge)
	lib.add(mapNS, "for-each", 2, 2, []SequenceType{stMap, stFunc}, stAny, mapForEach)

	lib.add(arrayNS, "size", 1, 1, []SequenceType{stArray}, stInteger, arraySize)
	lib.add(arrayNS, "get", 2, 2, []SequenceType{stArray, stInteger}, stAny, arrayGet)
	lib.add(arrayNS, "put", 3, 3, []SequenceType{stArray, stInteger, stAny}, stArray, arrayPut)
	lib.add(arrayNS, "append", 2, 2, []SequenceType{stArray, stAny}, stArray, arrayAppend)
	lib.add(arrayNS, "subarray", 2, 3, []SequenceType{stArray, stInteger, stInteger}, stArray, arraySubarray)
	lib.add(arrayNS, "remove", 2, 2, []SequenceType{stArray, stIntegers}, stArray, arrayRemove)
	lib.add(arrayNS, "insert-before", 3, 3, []SequenceType{stArray, stInteger, stAny}, stArray, arrayInsertBefore)
	lib.add(arrayNS, "head", 1, 1, []SequenceType{stArray}, stAny, arrayHead)
	lib.add(arrayNS, "tail", 1, 1, []SequenceType{stArray}, stArray, arrayTail)
	lib.add(arrayNS, "reverse", 1, 1, []SequenceType{stArray}, stArray, arrayReverse)
	lib.add(arrayNS, "join", 1, 1, []SequenceType{stArrays}, stArray, arrayJoin)
	lib.add(arrayNS, "flatten", 1, 1, []SequenceType{stAny}, stAny, arrayFlatten)
	lib.add(arrayNS, "for-each", 2, 2, []SequenceType{stArray, stFunc}, stArray, arrayForEach)
	lib.add(arrayNS, "filter", 2, 2, []SequenceType{stArray, stFunc}, stArray, arrayFilter)
	lib.add(arrayNS, "fold-left", 3, 3, []SequenceType{stArray, stAny, stFunc}, stAny, arrayFoldLeft)
	lib.add(arrayNS, "fold-right", 3, 3, []SequenceType{stArray, stAny, stFunc}, stAny, arrayFoldRight)
	lib.add(arrayNS, "for-each-pair", 3, 3, []SequenceType{stArray, stArray, stFunc}, stArray, arrayForEachPair)
}

func asMap(args []Sequence, i int) (mapItem, error) {
	m, ok := args[i][0].(mapItem)
	if !ok {
		return mapItem{}, Errorf(CodeOperandType, "map expected")
	}
	return m, nil
}

func asArray(args []Sequence, i int) (arrayItem, error) {
	a, ok := args[i][0].(arrayItem)
	if !ok {
		return arrayItem{}, Errorf(CodeOperandType, "array expected")
	}
	return a, nil
}

func mapSize(_ Context, args []Sequence) (Sequence, error) {
	m, err := asMap(args, 0)
	if err != nil {
		return nil, err
	}
	return Singleton(int64(len(m.pairs))), nil
}

func mapKeys(_ Context, args []Sequence) (Sequence, error) {
	m, err := asMap(args, 0)
	if err != nil {
		return nil, err
	}
	var out Sequence
	for _, p := range m.pairs {
		out.Append(p.key)
	}
	return out, nil
}

func mapContains(_ Context, args []Sequence) (Sequence, error) {
	m, err := asMap(args, 0)
	if err != nil {
		return nil, err
	}
	_, ok := m.get(args[1][0])
	return Singleton(ok), nil
}

func mapGet(_ Context, args []Sequence) (Sequence, error) {
	m, err := asMap(args, 0)
	if err != nil {
		return nil, err
	}
	res, _ := m.get(args[1][0])
	return res, nil
}

func mapPut(_ Context, args []Sequence) (Sequence, error) {
	m, err := asMap(args, 0)
	if err != nil {
		return nil, err
	}
	item, err := m.put(args[1][0], args[2])
	if err != nil {
		return nil, err
	}
	return Sequence{item}, nil
}

func mapEntryFn(_ Context, args []Sequence) (Sequence, error) {
	item, err := newMap([]mapPair{{key: args[0][0], value: args[1]}})
	if err != nil {
		return nil, err
	}
	return Sequence{item}, nil
}

func mapRemove(_ Context, args []Sequence) (Sequence, error) {
	m, err := asMap(args, 0)
	if err != nil {
		return nil, err
	}
	item := Item(m)
	for _, key := range args[1] {
		cur, ok := item.(mapItem)
		if !ok {
			break
		}
		item, err = cur.remove(key)
		if err != nil {
			return nil, err
		}
	}
	return Sequence{item}, nil
}

// mapMerge combines maps with a duplicate key policy from the options
// map: use-first (the default), use-last, use-any, combine or reject.
func mapMerge(ctx Context, args []Sequence) (Sequence, error) {
	policy := "use-first"
	if len(args) > 1 {
		opts, err := asMap(args, 1)
		if err != nil {
			return nil, err
		}
		if res, ok := opts.get(stringItem("duplicates")); ok && !res.Empty() {
			policy, _ = itemString(res[0])
		}
	}
	switch policy {
	case "use-first", "use-last", "use-any", "combine", "reject":
	default:
		return nil, Errorf(CodeDupKey, "%s: invalid duplicates policy", policy)
	}
	var (
		pairs []mapPair
		index = make(map[string]int)
	)
	for _, item := range args[0] {
		m, ok := item.(mapItem)
		if !ok {
			return nil, Errorf(CodeOperandType, "map expected")
		}
		for _, p := range m.pairs {
			key, err := mapKey(p.key)
			if err != nil {
				return nil, err
			}
			at, dup := index[key]
			if !dup {
				index[key] = len(pairs)
				pairs = append(pairs, p)
				continue
			}
			switch policy {
			case "use-first", "use-any":
			case "use-last":
				pairs[at] = p
			case "combine":
				var merged Sequence
				merged.Concat(pairs[at].value)
				merged.Concat(p.value)
				pairs[at] = mapPair{key: pairs[at].key, value: merged}
			case "reject":
				str, _ := itemString(p.key)
				return nil, Errorf(CodeDupKey, "%s: duplicate key", str)
			}
		}
	}
	item, err := newMap(pairs)
	if err != nil {
		return nil, err
	}
	return Sequence{item}, nil
}

func mapForEach(ctx Context, args []Sequence) (Sequence, error) {
	m, err := asMap(args, 0)
	if err != nil {
		return nil, err
	}
	var out Sequence
	for _, p := range m.pairs {
		res, err := applyFunction(args[1][0], []Sequence{{p.key}, p.value}, ctx)
		if err != nil {
			return nil, err
		}
		out.Concat(res)
	}
	return out, nil
}

func arraySize(_ Context, args []Sequence) (Sequence, error) {
	a, err := asArray(args, 0)
	if err != nil {
		return nil, err
	}
	return Singleton(int64(len(a.members))), nil
}

func arrayGet(_ Context, args []Sequence) (Sequence, error) {
	a, err := asArray(args, 0)
	if err != nil {
		return nil, err
	}
	at, _ := argInt(args, 1)
	return a.get(int(at))
}

func arrayPut(_ Context, args []Sequence) (Sequence, error) {
	a, err := asArray(args, 0)
	if err != nil {
		return nil, err
	}
	at, _ := argInt(args, 1)
	if at < 1 || at > int64(len(a.members)) {
		return nil, Errorf(CodeNoEntry, "array index %d out of bounds (1..%d)", at, len(a.members))
	}
	members := slices.Clone(a.members)
	members[at-1] = args[2]
	return Sequence{newArray(members)}, nil
}

func arrayAppend(_ Context, args []Sequence) (Sequence, error) {
	a, err := asArray(args, 0)
	if err != nil {
		return nil, err
	}
	members := slices.Clone(a.members)
	members = append(members, args[1])
	return Sequence{newArray(members)}, nil
}

func arraySubarray(_ Context, args []Sequence) (Sequence, error) {
	a, err := asArray(args, 0)
	if err != nil {
		return nil, err
	}
	start, _ := argInt(args, 1)
	length := int64(len(a.members)) - start + 1
	if len(args) > 2 {
		length, _ = argInt(args, 2)
	}
	if start < 1 || length < 0 || start+length > int64(len(a.members))+1 {
		return nil, Errorf(CodeNoEntry, "subarray range out of bounds")
	}
	members := slices.Clone(a.members[start-1 : start-1+length])
	return Sequence{newArray(members)}, nil
}

func arrayRemove(_ Context, args []Sequence) (Sequence, error) {
	a, err := asArray(args, 0)
	if err != nil {
		return nil, err
	}
	var drop []int64
	for _, item := range args[1] {
		at, err := asInt(item)
		if err != nil {
			return nil, err
		}
		if at < 1 || at > int64(len(a.members)) {
			return nil, Errorf(CodeNoEntry, "array index %d out of bounds (1..%d)", at, len(a.members))
		}
		drop = append(drop, at)
	}
	var members []Sequence
	for i := range a.members {
		if slices.Contains(drop, int64(i+1)) {
			continue
		}
		members = append(members, a.members[i])
	}
	return Sequence{newArray(members)}, nil
}

func arrayInsertBefore(_ Context, args []Sequence) (Sequence, error) {
	a, err := asArray(args, 0)
	if err != nil {
		return nil, err
	}
	at, _ := argInt(args, 1)
	if at < 1 || at > int64(len(a.members))+1 {
		return nil, Errorf(CodeNoEntry, "array index %d out of bounds (1..%d)", at, len(a.members)+1)
	}
	members := slices.Clone(a.members)
	members = slices.Insert(members, int(at-1), args[2])
	return Sequence{newArray(members)}, nil
}

func arrayHead(_ Context, args []Sequence) (Sequence, error) {
	a, err := asArray(args, 0)
	if err != nil {
		return nil, err
	}
	return a.get(1)
}

func arrayTail(_ Context, args []Sequence) (Sequence, error) {
	a, err := asArray(args, 0)
	if err != nil {
		return nil, err
	}
	if len(a.members) == 0 {
		return nil, Errorf(CodeNoEntry, "tail of an empty array")
	}
	return Sequence{newArray(slices.Clone(a.members[1:]))}, nil
}

func arrayReverse(_ Context, args []Sequence) (Sequence, error) {
	a, err := asArray(args, 0)
	if err != nil {
		return nil, err
	}
	members := slices.Clone(a.members)
	slices.Reverse(members)
	return Sequence{newArray(members)}, nil
}

func arrayJoin(_ Context, args []Sequence) (Sequence, error) {
	var members []Sequence
	for _, item := range args[0] {
		a, ok := item.(arrayItem)
		if !ok {
			return nil, Errorf(CodeOperandType, "array expected")
		}
		members = append(members, a.members...)
	}
	return Sequence{newArray(members)}, nil
}

func arrayFlatten(_ Context, args []Sequence) (Sequence, error) {
	var flatten func(Sequence) Sequence
	flatten = func(seq Sequence) Sequence {
		var out Sequence
		for _, item := range seq {
			if a, ok := item.(arrayItem); ok {
				for _, m := range a.members {
					out.Concat(flatten(m))
				}
				continue
			}
			out.Append(item)
		}
		return out
	}
	return flatten(args[0]), nil
}

func arrayForEach(ctx Context, args []Sequence) (Sequence, error) {
	a, err := asArray(args, 0)
	if err != nil {
		return nil, err
	}
	var members []Sequence
	for _, m := range a.members {
		res, err := applyFunction(args[1][0], []Sequence{m}, ctx)
		if err != nil {
			return nil, err
		}
		members = append(members, res)
	}
	return Sequence{newArray(members)}, nil
}

func arrayFilter(ctx Context, args []Sequence) (Sequence, error) {
	a, err := asArray(args, 0)
	if err != nil {
		return nil, err
	}
	var members []Sequence
	for _, m := range a.members {
		res, err := applyFunction(args[1][0], []Sequence{m}, ctx)
		if err != nil {
			return nil, err
		}
		if !res.Singleton() || itemType(res[0]) != typeBoolean {
			return nil, Errorf(CodeOperandType, "filter predicate must return a single boolean")
		}
		if keep, _ := res[0].Value().(bool); keep {
			members = append(members, m)
		}
	}
	return Sequence{newArray(members)}, nil
}

func arrayFoldLeft(ctx Context, args []Sequence) (Sequence, error) {
	a, err := asArray(args, 0)
	if err != nil {
		return nil, err
	}
	acc := args[1]
	for _, m := range a.members {
		res, err := applyFunction(args[2][0], []Sequence{acc, m}, ctx)
		if err != nil {
			return nil, err
		}
		acc = res
	}
	return acc, nil
}

func arrayFoldRight(ctx Context, args []Sequence) (Sequence, error) {
	a, err := asArray(args, 0)
	if err != nil {
		return nil, err
	}
	acc := args[1]
	for i := len(a.members) - 1; i >= 0; i-- {
		res, err := applyFunction(args[2][0], []Sequence{a.members[i], acc}, ctx)
		if err != nil {
			return nil, err
		}
		acc = res
	}
	return acc, nil
}

func arrayForEachPair(ctx Context, args []Sequence) (Sequence, error) {
	a, err := asArray(args, 0)
	if err != nil {
		return nil, err
	}
	b, err := asArray(args, 1)
	if err != nil {
		return nil, err
	}
	var members []Sequence
	for i := 0; i < len(a.members) && i < len(b.members); i++ {
		res, err := applyFunction(args[2][0], []Sequence{a.members[i], b.members[i]}, ctx)
		if err != nil {
			return nil, err
		}
		members = append(members, res)
	}
	return Sequence{newArray(members)}, nil
}
