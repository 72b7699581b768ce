// Package preprocess normalizes a parsed nedsascript AST and extracts the
// metadata (variable table, label set, stack alphabet) the compiler needs.
// It performs a single traversal in the spirit of a Preprocessor
// Transformer: declarations are stripped out of the tree as they're found
// rather than looked up again later.
package preprocess

import (
	"fmt"

	"github.com/dekarrin/nedsa/internal/ast"
	"github.com/dekarrin/nedsa/internal/util"
)

// FirstLabel is the synthetic label given to a bare leading code block.
const FirstLabel = "+FIRSTLABEL"

// BlankSymbol is the reserved symbol implicitly present at or beyond the
// top of the stack.
const BlankSymbol = "BLANK"

// Variable records one declared variable's bounds, in declaration order.
type Variable struct {
	Name    string
	Initial int
	Maximum int
}

// DuplicateLabelError reports that a label was declared more than once.
type DuplicateLabelError struct {
	Label string
}

func (e *DuplicateLabelError) Error() string {
	return fmt.Sprintf("parse error: label %q declared twice", e.Label)
}

// DuplicateVarError reports that a variable was declared more than once.
type DuplicateVarError struct {
	Name string
}

func (e *DuplicateVarError) Error() string {
	return fmt.Sprintf("parse error: variable %q declared twice", e.Name)
}

// BoundsError reports that a variable's initial value exceeds its declared
// maximum.
type BoundsError struct {
	Name    string
	Initial int
	Maximum int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("parse error: variable %q initialised to a larger value than its declared maximum (%d > %d)",
		e.Name, e.Initial, e.Maximum)
}

// Result is the output of Run: a normalized program plus the metadata
// extracted from it.
type Result struct {
	Blocks    []*ast.LabelledBlock
	Variables []Variable
	Labels    []string
	Alphabet  []string
}

// Run normalizes prog and collects its metadata. prog is not mutated; Run
// operates on and returns a fresh set of blocks.
func Run(prog *ast.Program) (*Result, error) {
	items := normalize(prog.Items)

	r := &Result{}
	seenLabels := util.NewStringSet()
	seenVars := util.NewStringSet()
	alphabet := util.NewStringSet()
	alphabet.Add(BlankSymbol)

	for _, item := range items {
		lb, ok := item.(*ast.LabelledBlock)
		if !ok {
			// VarDecl items are collected here, in the order they appear
			// at top level (nedsascript allows them anywhere at top level,
			// same as the original grammar).
			if decl, ok := item.(*ast.VarDecl); ok {
				if err := collectVarDecl(decl, r, seenVars); err != nil {
					return nil, err
				}
				continue
			}
			return nil, fmt.Errorf("internal error: unexpected item type %T after normalization", item)
		}

		if seenLabels.Has(lb.Label) {
			return nil, &DuplicateLabelError{Label: lb.Label}
		}
		seenLabels.Add(lb.Label)
		r.Labels = append(r.Labels, lb.Label)

		body, err := collectStatements(lb.Body, alphabet)
		if err != nil {
			return nil, err
		}
		r.Blocks = append(r.Blocks, &ast.LabelledBlock{Label: lb.Label, Body: body})
	}

	r.Alphabet = alphabet.SortedElements()

	return r, nil
}

func collectVarDecl(decl *ast.VarDecl, r *Result, seen util.StringSet) error {
	if seen.Has(decl.Name) {
		return &DuplicateVarError{Name: decl.Name}
	}
	if decl.Initial > decl.Maximum {
		return &BoundsError{Name: decl.Name, Initial: decl.Initial, Maximum: decl.Maximum}
	}
	seen.Add(decl.Name)
	r.Variables = append(r.Variables, Variable{Name: decl.Name, Initial: decl.Initial, Maximum: decl.Maximum})
	return nil
}

// normalize wraps a leading bare block and gives every bare label an empty
// body, and passes VarDecls through unchanged, so the main pass above only
// has to deal with LabelledBlock and VarDecl items.
//
// Rule 1: a bare leading code block becomes a LabelledBlock labelled
// FirstLabel.
// Rule 2: a bare label (trailing or not) becomes a LabelledBlock with an
// empty body.
func normalize(items []ast.Item) []ast.Item {
	out := make([]ast.Item, 0, len(items))

	for _, item := range items {
		switch v := item.(type) {
		case *ast.CodeBlock:
			// a bare CodeBlock is normally item 0; every bare CodeBlock
			// is wrapped in the synthetic FirstLabel, so a second one is
			// later reported as a duplicate label.
			out = append(out, &ast.LabelledBlock{Label: FirstLabel, Body: v.Body})
		case *ast.Label:
			out = append(out, &ast.LabelledBlock{Label: v.Name, Body: nil})
		default:
			out = append(out, item)
		}
	}

	return out
}

// collectStatements walks a statement list, recording every push/ifread
// symbol into alphabet and recursing into conditional bodies. It returns a
// copy of the statement slice (conditionals get their bodies replaced with
// the recursively-collected copies) so normalization never aliases the
// original AST.
func collectStatements(stmts []ast.Statement, alphabet util.StringSet) ([]ast.Statement, error) {
	out := make([]ast.Statement, len(stmts))
	for i, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.Push:
			alphabet.Add(s.Symbol)
			out[i] = s
		case *ast.IfRead:
			alphabet.Add(s.Symbol)
			body, err := collectStatements(s.Body, alphabet)
			if err != nil {
				return nil, err
			}
			out[i] = &ast.IfRead{Symbol: s.Symbol, Body: body}
		case *ast.IfComparison:
			body, err := collectStatements(s.Body, alphabet)
			if err != nil {
				return nil, err
			}
			out[i] = &ast.IfComparison{Left: s.Left, Cmp: s.Cmp, Right: s.Right, Body: body}
		default:
			out[i] = stmt
		}
	}
	return out, nil
}
