package compile

import (
	"fmt"

	"github.com/dekarrin/nedsa/internal/ast"
)

// UndeclaredVarError reports an expression or assignment referencing a
// variable that was never declared.
type UndeclaredVarError struct {
	Name string
}

func (e *UndeclaredVarError) Error() string {
	return fmt.Sprintf("assignment to nonexistent variable %q", e.Name)
}

// evalExpr evaluates e against one variable valuation. varIndex must
// already be validated to contain every name appearing in e (callers run
// exprVars up front so an undeclared reference is reported as a
// compile-time error rather than a panic mid-evaluation).
func evalExpr(e ast.Expr, val Valuation, varIndex map[string]int) int {
	switch n := e.(type) {
	case *ast.NumberExpr:
		return n.Value
	case *ast.NameExpr:
		return val[varIndex[n.Name]]
	case *ast.BinOpExpr:
		l := evalExpr(n.Left, val, varIndex)
		r := evalExpr(n.Right, val, varIndex)
		switch n.Op {
		case ast.OpAdd:
			return l + r
		case ast.OpSub:
			return l - r
		case ast.OpMul:
			return l * r
		case ast.OpDiv:
			return floorDiv(l, r)
		default:
			panic(fmt.Sprintf("unrecognized BinOp %v", n.Op))
		}
	default:
		panic(fmt.Sprintf("unrecognized Expr type %T", e))
	}
}

// floorDiv divides a by b using floor semantics (Python's //) rather than
// Go's truncating /.
func floorDiv(a, b int) int {
	q := a / b
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		q--
	}
	return q
}

// exprVars walks e and reports the first variable name referenced that is
// not present in varIndex, for use validating assignments and comparisons
// before any transitions are generated from them.
func exprVars(e ast.Expr, varIndex map[string]int) (missing string, ok bool) {
	switch n := e.(type) {
	case *ast.NumberExpr:
		return "", true
	case *ast.NameExpr:
		if _, declared := varIndex[n.Name]; !declared {
			return n.Name, false
		}
		return "", true
	case *ast.BinOpExpr:
		if m, ok := exprVars(n.Left, varIndex); !ok {
			return m, false
		}
		return exprVars(n.Right, varIndex)
	default:
		panic(fmt.Sprintf("unrecognized Expr type %T", e))
	}
}
