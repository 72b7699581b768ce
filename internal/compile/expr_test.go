package compile

import (
	"testing"

	"github.com/dekarrin/nedsa/internal/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_evalExpr_numberAndName(t *testing.T) {
	idx := map[string]int{"x": 0, "y": 1}
	val := Valuation{3, 7}

	assert.Equal(t, 3, evalExpr(&ast.NameExpr{Name: "x"}, val, idx))
	assert.Equal(t, 7, evalExpr(&ast.NameExpr{Name: "y"}, val, idx))
	assert.Equal(t, 42, evalExpr(&ast.NumberExpr{Value: 42}, val, idx))
}

func Test_evalExpr_arithmetic(t *testing.T) {
	idx := map[string]int{}
	val := Valuation{}

	cases := []struct {
		op   ast.BinOp
		l, r int
		want int
	}{
		{ast.OpAdd, 2, 3, 5},
		{ast.OpSub, 2, 3, -1},
		{ast.OpMul, 4, 5, 20},
		{ast.OpDiv, 7, 2, 3},
	}
	for _, c := range cases {
		e := &ast.BinOpExpr{Left: &ast.NumberExpr{Value: c.l}, Op: c.op, Right: &ast.NumberExpr{Value: c.r}}
		assert.Equal(t, c.want, evalExpr(e, val, idx))
	}
}

func Test_floorDiv_matchesPythonFloorSemantics(t *testing.T) {
	assert.Equal(t, 3, floorDiv(7, 2))
	assert.Equal(t, -4, floorDiv(-7, 2))
	assert.Equal(t, -4, floorDiv(7, -2))
	assert.Equal(t, 3, floorDiv(-7, -2))
	assert.Equal(t, 0, floorDiv(0, 5))
}

func Test_exprVars_reportsFirstUndeclaredName(t *testing.T) {
	idx := map[string]int{"x": 0}
	e := &ast.BinOpExpr{
		Left:  &ast.NameExpr{Name: "x"},
		Op:    ast.OpAdd,
		Right: &ast.NameExpr{Name: "y"},
	}
	missing, ok := exprVars(e, idx)
	require.False(t, ok)
	assert.Equal(t, "y", missing)
}

func Test_exprVars_okWhenAllDeclared(t *testing.T) {
	idx := map[string]int{"x": 0, "y": 1}
	e := &ast.BinOpExpr{Left: &ast.NameExpr{Name: "x"}, Op: ast.OpMul, Right: &ast.NameExpr{Name: "y"}}
	_, ok := exprVars(e, idx)
	assert.True(t, ok)
}
