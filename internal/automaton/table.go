package automaton

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// TableEntry is one state's eventual outcome under a fixed transition
// table: the state the automaton would end up in, and whether reaching it
// counts as a halt.
type TableEntry struct {
	StateTo string
	Halt    bool
}

// Table is a transition table: a snapshot, for a fixed stack, of the
// automaton's future behavior keyed by every state in the automaton.
// Two tables are equal exactly when every entry matches, which is what
// makes two stacks with equal tables indistinguishable to the automaton
// from that point on.
type Table struct {
	entries     map[string]TableEntry
	states      []string // canonical sorted state list, shared across all tables of one Decide run
	fingerprint [32]byte
	fpValid     bool
}

func newTable(states []string, fill func(state string) TableEntry) Table {
	entries := make(map[string]TableEntry, len(states))
	for _, s := range states {
		entries[s] = fill(s)
	}
	t := Table{entries: entries, states: states}
	t.fingerprint = computeFingerprint(states, entries)
	t.fpValid = true
	return t
}

// Get returns the entry for state. Every state in the automaton always has
// an entry, so the zero value is never observed in practice.
func (t Table) Get(state string) TableEntry {
	return t.entries[state]
}

// Equal reports whether two tables agree on every state's entry.
func (t Table) Equal(other Table) bool {
	if t.fpValid && other.fpValid && t.fingerprint != other.fingerprint {
		return false
	}
	if len(t.entries) != len(other.entries) {
		return false
	}
	for s, e := range t.entries {
		oe, ok := other.entries[s]
		if !ok || oe != e {
			return false
		}
	}
	return true
}

// computeFingerprint hashes a table's contents over a deterministic
// (sorted) iteration order, so that equal tables always hash equal and a
// hash mismatch is a cheap proof of inequality, per the design note that a
// content hash speeds up table lookup when collisions are handled (we
// still fall back to full structural equality on a hash match, in Equal
// above).
func computeFingerprint(states []string, entries map[string]TableEntry) [32]byte {
	var sb strings.Builder
	for _, s := range states {
		e := entries[s]
		sb.WriteString(s)
		sb.WriteByte('=')
		sb.WriteString(e.StateTo)
		if e.Halt {
			sb.WriteString(",1;")
		} else {
			sb.WriteString(",0;")
		}
	}
	return blake2b.Sum256([]byte(sb.String()))
}

// initialTable is the transition table for an empty stack: every state maps
// to a halting RejectInvalidMove, because a move(-1) off an empty stack
// always rejects.
func initialTable(states []string) Table {
	return newTable(states, func(string) TableEntry {
		return TableEntry{StateTo: RejectInvalidMove, Halt: true}
	})
}

// makeTransitionTable computes the table for a stack whose new top symbol
// is newTop, given the table for the stack one cell shorter (prev). For
// each state it simulates a bounded local run that starts reading newTop
// from that state and proceeds until the run leaves this cell (by moving
// up), halts outright, rejects a push, or exceeds the iteration bound — in
// which case the state loops forever within this one cell and is reported
// as DoesNotHalt.
func (n *NESA) makeTransitionTable(states []string, prev Table, newTop string) Table {
	return newTable(states, func(state string) TableEntry {
		return n.eventualTransition(state, prev, newTop, len(states))
	})
}

func (n *NESA) eventualTransition(state string, prev Table, newTop string, bound int) TableEntry {
	for i := 0; i <= bound; i++ {
		t, ok := n.lookup(state, newTop)
		if !ok {
			return TableEntry{StateTo: state, Halt: true}
		}
		state = t.StateTo

		switch {
		case t.Effect.Kind == EffectPush:
			// pushing below the new top is only legal at the stack's
			// actual top; here the head is strictly below it.
			return TableEntry{StateTo: RejectInvalidPush, Halt: true}
		case t.Effect.Kind == EffectMove && t.Effect.Delta == 1:
			return TableEntry{StateTo: state, Halt: false}
		case t.Effect.Kind == EffectMove && t.Effect.Delta == -1:
			pe := prev.Get(state)
			if pe.Halt {
				return TableEntry{StateTo: pe.StateTo, Halt: true}
			}
			state = pe.StateTo
		}
	}
	return TableEntry{StateTo: DoesNotHalt, Halt: true}
}

// WorstCaseTableEstimate returns the Hopcroft & Ullman bound on the number
// of distinct transition tables a Decide run over an automaton with the
// given state count might have to construct before it must repeat one:
// |states|² · 2.
func WorstCaseTableEstimate(stateCount int) int {
	return stateCount * stateCount * 2
}

// tableHistory is the association list of every transition table observed
// during one Decide run, together with the set of states visited while
// that table was current. An association list is used (rather than a map
// keyed on Table) because Go maps, like Python dicts, can't be keyed by a
// value holding a nested map.
type tableHistory struct {
	entries []*historyEntry
}

type historyEntry struct {
	table   Table
	visited map[string]bool
}

func (h *tableHistory) find(t Table) *historyEntry {
	for _, e := range h.entries {
		if e.table.Equal(t) {
			return e
		}
	}
	return nil
}

func (h *tableHistory) observe(t Table) (entry *historyEntry, isNew bool) {
	if e := h.find(t); e != nil {
		return e, false
	}
	e := &historyEntry{table: t, visited: map[string]bool{}}
	h.entries = append(h.entries, e)
	return e, true
}

// Decide runs the automaton starting at Start with an empty stack,
// terminating design guaranteed: it detects infinite, non-halting runs
// (including ones whose stack grows forever) by recognizing when a state
// recurs under an already-seen transition table, which Hopcroft & Ullman's
// theorem guarantees must eventually happen since there are only finitely
// many distinct tables over a finite state set.
//
// logger, if non-nil, receives one line per newly discovered transition
// table, for diagnostic use by callers such as cmd/nedsa and cmd/nedsad,
// which pass their estimate logger here.
func (n *NESA) Decide(logger *log.Logger) string {
	states := n.States()
	sort.Strings(states)

	history := &tableHistory{}
	current := initialTable(states)
	history.observe(current)

	state := Start

	for {
		t, ok := n.lookup(state, BlankSymbol)
		if !ok {
			return state
		}
		state = t.StateTo

		if t.Effect.Kind == EffectPush {
			current = n.makeTransitionTable(states, current, t.Effect.Push)
			if _, isNew := history.observe(current); isNew && logger != nil {
				logger.Printf("decide: discovered transition table #%d", len(history.entries))
			}
		}

		if t.Effect.Kind == EffectMove && t.Effect.Delta == 1 {
			return RejectInvalidMove
		}
		if t.Effect.Kind == EffectMove && t.Effect.Delta == -1 {
			e := current.Get(state)
			if e.Halt {
				return e.StateTo
			}
			state = e.StateTo
		}

		entry := history.find(current)
		if entry == nil {
			// defensive: current is always observed above before this
			// point is reached.
			panic(fmt.Sprintf("internal error: current transition table not in history at state %q", state))
		}
		if entry.visited[state] {
			return DoesNotHalt
		}
		entry.visited[state] = true
	}
}
