package automaton

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_WorstCaseTableEstimate(t *testing.T) {
	assert.Equal(t, 0, WorstCaseTableEstimate(0))
	assert.Equal(t, 2, WorstCaseTableEstimate(1))
	assert.Equal(t, 200, WorstCaseTableEstimate(10))
}

func Test_Table_equalTablesHaveEqualFingerprints(t *testing.T) {
	states := []string{"a", "b"}
	fill := func(s string) TableEntry { return TableEntry{StateTo: "x", Halt: true} }

	t1 := newTable(states, fill)
	t2 := newTable(states, fill)

	assert.True(t, t1.Equal(t2))
	assert.Equal(t, t1.Get("a"), t2.Get("a"))
}

func Test_Table_differingEntriesAreNotEqual(t *testing.T) {
	states := []string{"a", "b"}
	t1 := newTable(states, func(s string) TableEntry { return TableEntry{StateTo: "x", Halt: true} })
	t2 := newTable(states, func(s string) TableEntry {
		if s == "a" {
			return TableEntry{StateTo: "y", Halt: true}
		}
		return TableEntry{StateTo: "x", Halt: true}
	})
	assert.False(t, t1.Equal(t2))
}

func Test_initialTable_alwaysRejectsMoveDown(t *testing.T) {
	states := []string{"a", "b", "c"}
	tbl := initialTable(states)
	for _, s := range states {
		e := tbl.Get(s)
		assert.Equal(t, RejectInvalidMove, e.StateTo)
		assert.True(t, e.Halt)
	}
}

// A program that halts immediately: run and decide must agree.
func Test_Decide_agreesWithRunOnImmediateHalt(t *testing.T) {
	n := New([]Transition{
		{StateFrom: Start, Read: BlankSymbol, StateTo: "SUCCESS-block0", Effect: Effect{Kind: EffectNone}},
	})
	assert.Equal(t, n.Run(), n.Decide(nil))
	assert.Equal(t, "SUCCESS-block0", n.Decide(nil))
}

// A program that halts after one push and a move back down: run and
// decide must agree.
func Test_Decide_agreesWithRunAfterPushAndMove(t *testing.T) {
	n := New([]Transition{
		{StateFrom: Start, Read: BlankSymbol, StateTo: "s0", Effect: Effect{Kind: EffectNone}},
		{StateFrom: "s0", Read: BlankSymbol, StateTo: "s1", Effect: Effect{Kind: EffectPush, Push: "X"}},
		{StateFrom: "s1", Read: BlankSymbol, StateTo: "s2", Effect: Effect{Kind: EffectMove, Delta: -1}},
		{StateFrom: "s2", Read: "X", StateTo: "done", Effect: Effect{Kind: EffectMove, Delta: 1}},
	})
	assert.Equal(t, n.Run(), n.Decide(nil))
	assert.Equal(t, "done", n.Decide(nil))
}

// A loop that revisits the same state under a stable (never-changing)
// transition table must be reported as non-halting.
func Test_Decide_detectsStateRevisitUnderSameTable(t *testing.T) {
	n := New([]Transition{
		{StateFrom: Start, Read: BlankSymbol, StateTo: "loop", Effect: Effect{Kind: EffectNone}},
		{StateFrom: "loop", Read: BlankSymbol, StateTo: "loop", Effect: Effect{Kind: EffectNone}},
	})
	assert.Equal(t, DoesNotHalt, n.Decide(nil))
}

// A program that pushes forever, always at the stack's top, never halts;
// the decider must still terminate and report it.
func Test_Decide_detectsUnboundedGrowthWithoutHanging(t *testing.T) {
	n := New([]Transition{
		{StateFrom: Start, Read: BlankSymbol, StateTo: "grow", Effect: Effect{Kind: EffectNone}},
		{StateFrom: "grow", Read: BlankSymbol, StateTo: "grow", Effect: Effect{Kind: EffectPush, Push: "X"}},
	})

	done := make(chan string, 1)
	go func() { done <- n.Decide(nil) }()

	select {
	case got := <-done:
		assert.Equal(t, DoesNotHalt, got)
	case <-time.After(5 * time.Second):
		t.Fatal("Decide did not terminate within the test budget")
	}
}
