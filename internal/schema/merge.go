package schema

// mergeTable holds Merge for every ordered pair of types. It is filled once
// from mergeRule so the rule list stays the single source of truth.
var mergeTable = func() (tbl [numTypes][numTypes]Type) {
	for a := 0; a < numTypes; a++ {
		for b := 0; b < numTypes; b++ {
			tbl[a][b] = mergeRule(Type(a), Type(b))
		}
	}
	return tbl
}()

// Merge returns the least general type able to hold values of both a and b.
// It is commutative and associative, Null is its identity and Text absorbs
// every other type.
func Merge(a, b Type) Type {
	if int(a) >= numTypes || int(b) >= numTypes {
		return Text
	}
	return mergeTable[a][b]
}

// MergeAll folds Merge over ts starting from Null.
func MergeAll(ts ...Type) Type {
	out := Null
	for _, t := range ts {
		out = Merge(out, t)
	}
	return out
}

func mergeRule(a, b Type) Type {
	switch {
	case a == Text || b == Text:
		return Text
	case a == Null:
		return b
	case b == Null:
		return a
	case a == b:
		return a
	case a.IsInteger() && b.IsInteger():
		// Integer widths are ordered by declaration.
		return max(a, b)
	case a.IsNumeric() && b.IsNumeric():
		// Any mix involving a float goes to double precision, even when both
		// sides would fit a real.
		return Double
	case a.IsTemporal() && b.IsTemporal():
		return Timestamp
	default:
		// Boolean with anything else, temporal with numeric.
		return Text
	}
}
