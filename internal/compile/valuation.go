package compile

import "strconv"

// Valuation is an ordered tuple of current values for the declared
// variables, in declaration order. The zero-length Valuation is the
// correct (and only) valuation for a program with no variables.
type Valuation []int

// Suffix renders the state-name suffix for this valuation:
// "-v1-v2-...-vk", or "" when there are no variables.
func (v Valuation) Suffix() string {
	if len(v) == 0 {
		return ""
	}
	var buf []byte
	for _, val := range v {
		buf = append(buf, '-')
		buf = strconv.AppendInt(buf, int64(val), 10)
	}
	return string(buf)
}

// With returns a copy of v with position i replaced by newVal, leaving v
// itself untouched. Possibility lists are threaded through compilation by
// value specifically so that no conditional sub-compile can mutate a
// valuation still live in an enclosing scope.
func (v Valuation) With(i, newVal int) Valuation {
	out := make(Valuation, len(v))
	copy(out, v)
	out[i] = newVal
	return out
}

// fullProduct enumerates every valuation in the Cartesian product of
// [0, maxs[0]] x [0, maxs[1]] x ... x [0, maxs[k-1]], in the same
// outer-to-inner order as Python's itertools.product: the last variable
// varies fastest.
func fullProduct(maxs []int) []Valuation {
	if len(maxs) == 0 {
		return []Valuation{{}}
	}

	var out []Valuation
	cur := make(Valuation, len(maxs))
	var rec func(pos int)
	rec = func(pos int) {
		if pos == len(maxs) {
			cp := make(Valuation, len(cur))
			copy(cp, cur)
			out = append(out, cp)
			return
		}
		for val := 0; val <= maxs[pos]; val++ {
			cur[pos] = val
			rec(pos + 1)
		}
	}
	rec(0)
	return out
}
