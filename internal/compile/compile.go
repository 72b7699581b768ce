// Package compile translates a normalized nedsascript AST (as produced by
// internal/preprocess) and its extracted metadata into a flat list of NESA
// transitions. Variables are eliminated by state explosion: the compiler
// enumerates the Cartesian product of variable domains and realizes one
// copy of each control-flow location per live valuation.
package compile

import (
	"fmt"
	"log"
	"strconv"

	"github.com/dekarrin/nedsa/internal/ast"
	"github.com/dekarrin/nedsa/internal/automaton"
	"github.com/dekarrin/nedsa/internal/preprocess"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Compiler holds the read-only inputs shared across one compilation: the
// stack alphabet and the declared variables' names, initial values, and
// maximums. A Compiler is built once per program and never reused, mostly
// so the logger can be attached without threading it through every
// function call.
type Compiler struct {
	alphabet []string
	varNames []string
	varIndex map[string]int
	varInits []int
	varMaxs  []int
	logger   *log.Logger
}

// New builds a Compiler from the metadata preprocess.Run extracted.
// logger may be nil to suppress the compile-time size estimate log line.
func New(vars []preprocess.Variable, alphabet []string, logger *log.Logger) *Compiler {
	c := &Compiler{
		alphabet: alphabet,
		logger:   logger,
	}
	for _, v := range vars {
		c.varNames = append(c.varNames, v.Name)
		c.varInits = append(c.varInits, v.Initial)
		c.varMaxs = append(c.varMaxs, v.Maximum)
	}
	c.varIndex = make(map[string]int, len(c.varNames))
	for i, name := range c.varNames {
		c.varIndex[name] = i
	}
	return c
}

// Compile translates the normalized, labelled blocks into a complete NESA
// transition list by walking the program-level wiring and applying a
// per-statement translation.
func (c *Compiler) Compile(blocks []*ast.LabelledBlock) ([]automaton.Transition, error) {
	if len(blocks) == 0 {
		return nil, fmt.Errorf("program has no labelled blocks")
	}

	possibilities := fullProduct(c.varMaxs)
	initValuation := Valuation(c.varInits)

	var transitions []automaton.Transition

	transitions = append(transitions, automaton.Transition{
		StateFrom: automaton.Start,
		Read:      automaton.BlankSymbol,
		StateTo:   blocks[0].Label + initValuation.Suffix(),
		Effect:    automaton.Effect{Kind: automaton.EffectNone},
	})

	for i, block := range blocks {
		for _, p := range possibilities {
			for _, sym := range c.alphabet {
				transitions = append(transitions, automaton.Transition{
					StateFrom: block.Label + p.Suffix(),
					Read:      sym,
					StateTo:   block.Label + p.Suffix() + "-block0",
					Effect:    automaton.Effect{Kind: automaton.EffectNone},
				})
			}
		}

		bodyTransitions, _, finalN, err := c.compileBody(block.Label, block.Body, possibilities, 0)
		if err != nil {
			return nil, err
		}
		transitions = append(transitions, bodyTransitions...)

		if i+1 < len(blocks) {
			next := blocks[i+1]
			for _, p := range possibilities {
				for _, sym := range c.alphabet {
					transitions = append(transitions, automaton.Transition{
						StateFrom: block.Label + p.Suffix() + "-block" + strconv.Itoa(finalN),
						Read:      sym,
						StateTo:   next.Label + p.Suffix(),
						Effect:    automaton.Effect{Kind: automaton.EffectNone},
					})
				}
			}
		}
	}

	if c.logger != nil {
		states := automaton.New(transitions).States()
		c.logger.Printf("compiled %d states across %d blocks; worst-case decide work ~%s transition tables",
			len(states), len(blocks), formatEstimate(automaton.WorstCaseTableEstimate(len(states))))
	}

	return transitions, nil
}

// compileBody translates one sequence of statements within block label,
// starting at progress index n with live valuations possibilities. It
// returns the generated transitions, the live valuations surviving to the
// end of the sequence, and the progress index just past the sequence.
//
// possibilities is never mutated in place: every statement that narrows or
// rewrites it produces a fresh slice and the old one is left untouched,
// which is what keeps a conditional sub-compile from corrupting state a
// caller still holds a reference to.
func (c *Compiler) compileBody(label string, stmts []ast.Statement, possibilities []Valuation, n int) ([]automaton.Transition, []Valuation, int, error) {
	var transitions []automaton.Transition

	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.Pass:
			// no transitions, no progress

		case *ast.Push:
			for _, p := range possibilities {
				for _, sym := range c.alphabet {
					transitions = append(transitions, automaton.Transition{
						StateFrom: blockState(label, p, n),
						Read:      sym,
						StateTo:   blockState(label, p, n+1),
						Effect:    automaton.Effect{Kind: automaton.EffectPush, Push: s.Symbol},
					})
				}
			}
			n++

		case *ast.Move:
			delta := 1
			if s.Dir == ast.Down {
				delta = -1
			}
			for _, p := range possibilities {
				for _, sym := range c.alphabet {
					transitions = append(transitions, automaton.Transition{
						StateFrom: blockState(label, p, n),
						Read:      sym,
						StateTo:   blockState(label, p, n+1),
						Effect:    automaton.Effect{Kind: automaton.EffectMove, Delta: delta},
					})
				}
			}
			n++

		case *ast.Halt:
			for _, p := range possibilities {
				for _, sym := range c.alphabet {
					transitions = append(transitions, automaton.Transition{
						StateFrom: blockState(label, p, n),
						Read:      sym,
						StateTo:   s.Label + p.Suffix() + "-halt",
						Effect:    automaton.Effect{Kind: automaton.EffectNone},
					})
				}
			}
			// advance past a dead state, same reasoning as goto below
			n++

		case *ast.Goto:
			for _, p := range possibilities {
				for _, sym := range c.alphabet {
					transitions = append(transitions, automaton.Transition{
						StateFrom: blockState(label, p, n),
						Read:      sym,
						StateTo:   s.Label + p.Suffix(),
						Effect:    automaton.Effect{Kind: automaton.EffectNone},
					})
				}
			}
			// n is advanced even though it's dead code from here, so that
			// if this halt/goto is the last statement of a conditional
			// body, the body's final progress index differs from the
			// parent's pre-conditional index and the parent still has a
			// distinct post-conditional state to resume at.
			n++

		case *ast.VarAssignment:
			newTransitions, newPossibilities, err := c.compileAssignment(label, s, possibilities, n)
			if err != nil {
				return nil, nil, 0, err
			}
			transitions = append(transitions, newTransitions...)
			possibilities = newPossibilities
			n++

		case *ast.IfRead:
			newTransitions, newPossibilities, newN, err := c.compileIfRead(label, s, possibilities, n)
			if err != nil {
				return nil, nil, 0, err
			}
			transitions = append(transitions, newTransitions...)
			possibilities = newPossibilities
			n = newN

		case *ast.IfComparison:
			newTransitions, newPossibilities, newN, err := c.compileIfComparison(label, s, possibilities, n)
			if err != nil {
				return nil, nil, 0, err
			}
			transitions = append(transitions, newTransitions...)
			possibilities = newPossibilities
			n = newN

		default:
			return nil, nil, 0, fmt.Errorf("internal error: unhandled statement type %T", stmt)
		}
	}

	return transitions, possibilities, n, nil
}

func (c *Compiler) compileAssignment(label string, s *ast.VarAssignment, possibilities []Valuation, n int) ([]automaton.Transition, []Valuation, error) {
	varIdx, ok := c.varIndex[s.Name]
	if !ok {
		return nil, nil, &UndeclaredVarError{Name: s.Name}
	}
	if missing, ok := exprVars(s.Expr, c.varIndex); !ok {
		return nil, nil, &UndeclaredVarError{Name: missing}
	}

	var transitions []automaton.Transition
	newPossibilities := make([]Valuation, 0, len(possibilities))

	for _, p := range possibilities {
		newVal := evalExpr(s.Expr, p, c.varIndex)
		if newVal < 0 || newVal > c.varMaxs[varIdx] {
			for _, sym := range c.alphabet {
				transitions = append(transitions, automaton.Transition{
					StateFrom: blockState(label, p, n),
					Read:      sym,
					StateTo:   label + automaton.VariableOutsideBounds,
					Effect:    automaton.Effect{Kind: automaton.EffectNone},
				})
			}
			continue
		}

		p2 := p.With(varIdx, newVal)
		for _, sym := range c.alphabet {
			transitions = append(transitions, automaton.Transition{
				StateFrom: blockState(label, p, n),
				Read:      sym,
				StateTo:   blockState(label, p2, n+1),
				Effect:    automaton.Effect{Kind: automaton.EffectNone},
			})
		}
		newPossibilities = append(newPossibilities, p2)
	}

	return transitions, newPossibilities, nil
}

func (c *Compiler) compileIfRead(label string, s *ast.IfRead, possibilities []Valuation, n int) ([]automaton.Transition, []Valuation, int, error) {
	v0 := possibilities // pre-branch snapshot; never mutated, only possibilities is reassigned below

	var transitions []automaton.Transition
	for _, p := range possibilities {
		transitions = append(transitions, automaton.Transition{
			StateFrom: blockState(label, p, n),
			Read:      s.Symbol,
			StateTo:   blockState(label, p, n+1),
			Effect:    automaton.Effect{Kind: automaton.EffectNone},
		})
	}

	bodyTransitions, newPossibilities, newN, err := c.compileBody(label, s.Body, possibilities, n+1)
	if err != nil {
		return nil, nil, 0, err
	}

	for _, p := range v0 {
		for _, sym := range c.alphabet {
			if sym == s.Symbol {
				continue
			}
			transitions = append(transitions, automaton.Transition{
				StateFrom: blockState(label, p, n),
				Read:      sym,
				StateTo:   blockState(label, p, newN),
				Effect:    automaton.Effect{Kind: automaton.EffectNone},
			})
		}
	}
	transitions = append(transitions, bodyTransitions...)

	return transitions, newPossibilities, newN, nil
}

func (c *Compiler) compileIfComparison(label string, s *ast.IfComparison, possibilities []Valuation, n int) ([]automaton.Transition, []Valuation, int, error) {
	if missing, ok := exprVars(s.Left, c.varIndex); !ok {
		return nil, nil, 0, &UndeclaredVarError{Name: missing}
	}
	if missing, ok := exprVars(s.Right, c.varIndex); !ok {
		return nil, nil, 0, &UndeclaredVarError{Name: missing}
	}

	v0 := possibilities
	constrained := make(map[string]Valuation, len(possibilities))
	var constrainedOrder []Valuation
	for _, p := range possibilities {
		lv := evalExpr(s.Left, p, c.varIndex)
		rv := evalExpr(s.Right, p, c.varIndex)
		if s.Cmp.Eval(lv, rv) {
			constrained[p.Suffix()] = p
			constrainedOrder = append(constrainedOrder, p)
		}
	}

	var transitions []automaton.Transition
	for _, p := range constrainedOrder {
		for _, sym := range c.alphabet {
			transitions = append(transitions, automaton.Transition{
				StateFrom: blockState(label, p, n),
				Read:      sym,
				StateTo:   blockState(label, p, n+1),
				Effect:    automaton.Effect{Kind: automaton.EffectNone},
			})
		}
	}

	bodyTransitions, newPossibilities, newN, err := c.compileBody(label, s.Body, constrainedOrder, n+1)
	if err != nil {
		return nil, nil, 0, err
	}
	transitions = append(transitions, bodyTransitions...)

	for _, p := range v0 {
		if _, ok := constrained[p.Suffix()]; ok {
			continue
		}
		for _, sym := range c.alphabet {
			transitions = append(transitions, automaton.Transition{
				StateFrom: blockState(label, p, n),
				Read:      sym,
				StateTo:   blockState(label, p, newN),
				Effect:    automaton.Effect{Kind: automaton.EffectNone},
			})
		}
	}

	return transitions, newPossibilities, newN, nil
}

func blockState(label string, p Valuation, n int) string {
	return label + p.Suffix() + "-block" + strconv.Itoa(n)
}

var estimatePrinter = message.NewPrinter(language.English)

// formatEstimate renders a table-count estimate with thousands separators
// for the compile-time diagnostic log, matching the original source's
// pre-flight "may have to run through N tables" estimate (moved here from
// decide time since the state count is already known once compilation
// finishes).
func formatEstimate(n int) string {
	return estimatePrinter.Sprintf("%d", n)
}
