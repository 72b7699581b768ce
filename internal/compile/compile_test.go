package compile

import (
	"testing"

	"github.com/dekarrin/nedsa/internal/ast"
	"github.com/dekarrin/nedsa/internal/automaton"
	"github.com/dekarrin/nedsa/internal/preprocess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findTransition(ts []automaton.Transition, from, read string) (automaton.Transition, bool) {
	for _, t := range ts {
		if t.StateFrom == from && t.Read == read {
			return t, true
		}
	}
	return automaton.Transition{}, false
}

func Test_Compile_emitsStartTransition(t *testing.T) {
	blocks := []*ast.LabelledBlock{
		{Label: "start", Body: nil},
	}
	c := New(nil, []string{automaton.BlankSymbol}, nil)
	ts, err := c.Compile(blocks)
	require.NoError(t, err)

	start, ok := findTransition(ts, automaton.Start, automaton.BlankSymbol)
	require.True(t, ok)
	assert.Equal(t, "start", start.StateTo)
	assert.Equal(t, automaton.EffectNone, start.Effect.Kind)
}

func Test_Compile_noVariablesLeavesSuffixEmpty(t *testing.T) {
	blocks := []*ast.LabelledBlock{
		{Label: "start", Body: []ast.Statement{&ast.Push{Symbol: "A"}}},
	}
	c := New(nil, []string{automaton.BlankSymbol, "A"}, nil)
	ts, err := c.Compile(blocks)
	require.NoError(t, err)

	for _, tr := range ts {
		assert.NotContains(t, tr.StateFrom, "--")
	}
}

func Test_Compile_pushGeneratesTransitionForEverySymbol(t *testing.T) {
	blocks := []*ast.LabelledBlock{
		{Label: "start", Body: []ast.Statement{&ast.Push{Symbol: "A"}}},
	}
	alphabet := []string{automaton.BlankSymbol, "A", "B"}
	c := New(nil, alphabet, nil)
	ts, err := c.Compile(blocks)
	require.NoError(t, err)

	for _, sym := range alphabet {
		tr, ok := findTransition(ts, "start-block0", sym)
		require.True(t, ok, "missing transition for symbol %q", sym)
		assert.Equal(t, automaton.EffectPush, tr.Effect.Kind)
		assert.Equal(t, "A", tr.Effect.Push)
		assert.Equal(t, "start-block1", tr.StateTo)
	}
}

func Test_Compile_chainsConsecutiveBlocks(t *testing.T) {
	blocks := []*ast.LabelledBlock{
		{Label: "first", Body: []ast.Statement{&ast.Push{Symbol: "A"}}},
		{Label: "second", Body: nil},
	}
	alphabet := []string{automaton.BlankSymbol, "A"}
	c := New(nil, alphabet, nil)
	ts, err := c.Compile(blocks)
	require.NoError(t, err)

	tr, ok := findTransition(ts, "first-block1", automaton.BlankSymbol)
	require.True(t, ok)
	assert.Equal(t, "second", tr.StateTo)
}

func Test_Compile_variableOutOfBoundsRoutesToSentinel(t *testing.T) {
	blocks := []*ast.LabelledBlock{
		{
			Label: "start",
			Body: []ast.Statement{
				&ast.VarAssignment{Name: "x", Expr: &ast.NumberExpr{Value: 5}},
			},
		},
	}
	vars := []preprocess.Variable{{Name: "x", Initial: 0, Maximum: 2}}
	c := New(vars, []string{automaton.BlankSymbol}, nil)
	ts, err := c.Compile(blocks)
	require.NoError(t, err)

	tr, ok := findTransition(ts, "start-0-block0", automaton.BlankSymbol)
	require.True(t, ok)
	assert.Equal(t, "start"+automaton.VariableOutsideBounds, tr.StateTo)
}

func Test_Compile_variableAssignmentWithinBoundsAdvances(t *testing.T) {
	blocks := []*ast.LabelledBlock{
		{
			Label: "start",
			Body: []ast.Statement{
				&ast.VarAssignment{Name: "x", Expr: &ast.NumberExpr{Value: 2}},
			},
		},
	}
	vars := []preprocess.Variable{{Name: "x", Initial: 0, Maximum: 2}}
	c := New(vars, []string{automaton.BlankSymbol}, nil)
	ts, err := c.Compile(blocks)
	require.NoError(t, err)

	tr, ok := findTransition(ts, "start-0-block0", automaton.BlankSymbol)
	require.True(t, ok)
	assert.Equal(t, "start-2-block1", tr.StateTo)
}

func Test_Compile_assignmentToUndeclaredVariableIsFatal(t *testing.T) {
	blocks := []*ast.LabelledBlock{
		{
			Label: "start",
			Body: []ast.Statement{
				&ast.VarAssignment{Name: "missing", Expr: &ast.NumberExpr{Value: 1}},
			},
		},
	}
	c := New(nil, []string{automaton.BlankSymbol}, nil)
	_, err := c.Compile(blocks)
	require.Error(t, err)
	var undecl *UndeclaredVarError
	require.ErrorAs(t, err, &undecl)
	assert.Equal(t, "missing", undecl.Name)
}

func Test_Compile_halfOfIfReadSkipsBodyOnMismatch(t *testing.T) {
	blocks := []*ast.LabelledBlock{
		{
			Label: "start",
			Body: []ast.Statement{
				&ast.IfRead{Symbol: "A", Body: []ast.Statement{&ast.Push{Symbol: "B"}}},
				&ast.Push{Symbol: "C"},
			},
		},
	}
	alphabet := []string{automaton.BlankSymbol, "A", "B", "C"}
	c := New(nil, alphabet, nil)
	ts, err := c.Compile(blocks)
	require.NoError(t, err)

	// Reading "A" enters the body (block1, the ifread's entry progress).
	enter, ok := findTransition(ts, "start-block0", "A")
	require.True(t, ok)
	assert.Equal(t, "start-block1", enter.StateTo)

	// Reading anything else skips straight to the state after the body.
	skip, ok := findTransition(ts, "start-block0", automaton.BlankSymbol)
	require.True(t, ok)
	assert.NotEqual(t, "start-block1", skip.StateTo)
}

func Test_Compile_deterministic_noTransitionSharesFromAndRead(t *testing.T) {
	blocks := []*ast.LabelledBlock{
		{
			Label: "start",
			Body: []ast.Statement{
				&ast.IfComparison{
					Left: &ast.NameExpr{Name: "x"}, Cmp: ast.CmpEqual, Right: &ast.NumberExpr{Value: 0},
					Body: []ast.Statement{&ast.Push{Symbol: "A"}},
				},
				&ast.Push{Symbol: "B"},
			},
		},
	}
	vars := []preprocess.Variable{{Name: "x", Initial: 0, Maximum: 1}}
	c := New(vars, []string{automaton.BlankSymbol, "A", "B"}, nil)
	ts, err := c.Compile(blocks)
	require.NoError(t, err)

	seen := make(map[[2]string]bool)
	for _, tr := range ts {
		key := [2]string{tr.StateFrom, tr.Read}
		require.False(t, seen[key], "duplicate (state_from, read) pair: %v", key)
		seen[key] = true
	}

	// constructing the NESA must not panic, which is its own check for
	// determinism (automaton.New panics on a conflicting pair).
	assert.NotPanics(t, func() { automaton.New(ts) })
}

func Test_Compile_emptyProgramIsAnError(t *testing.T) {
	c := New(nil, []string{automaton.BlankSymbol}, nil)
	_, err := c.Compile(nil)
	require.Error(t, err)
}
