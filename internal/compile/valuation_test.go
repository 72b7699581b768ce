package compile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Valuation_Suffix(t *testing.T) {
	assert.Equal(t, "", Valuation{}.Suffix())
	assert.Equal(t, "-0", Valuation{0}.Suffix())
	assert.Equal(t, "-2-5", Valuation{2, 5}.Suffix())
}

func Test_Valuation_With_doesNotMutateReceiver(t *testing.T) {
	v := Valuation{1, 2, 3}
	v2 := v.With(1, 9)

	assert.Equal(t, Valuation{1, 2, 3}, v)
	assert.Equal(t, Valuation{1, 9, 3}, v2)
}

func Test_fullProduct_noVariables(t *testing.T) {
	out := fullProduct(nil)
	assert.Equal(t, []Valuation{{}}, out)
}

func Test_fullProduct_singleVariable(t *testing.T) {
	out := fullProduct([]int{2})
	assert.Equal(t, []Valuation{{0}, {1}, {2}}, out)
}

func Test_fullProduct_lastVariableVariesFastest(t *testing.T) {
	out := fullProduct([]int{1, 1})
	assert.Equal(t, []Valuation{{0, 0}, {0, 1}, {1, 0}, {1, 1}}, out)
}

func Test_fullProduct_zeroMaxIsConstant(t *testing.T) {
	out := fullProduct([]int{0, 2})
	assert.Equal(t, []Valuation{{0, 0}, {0, 1}, {0, 2}}, out)
}
