package rotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestWinnerTransitionNoChange(t *testing.T) {
	reverse, apply := winnerTransition(nil, nil)
	assert.Nil(t, reverse)
	assert.Nil(t, apply)

	reverse, apply = winnerTransition(intPtr(1), intPtr(1))
	assert.Nil(t, reverse)
	assert.Nil(t, apply)

	reverse, apply = winnerTransition(intPtr(2), intPtr(2))
	assert.Nil(t, reverse)
	assert.Nil(t, apply)
}

func TestWinnerTransitionSetWinner(t *testing.T) {
	reverse, apply := winnerTransition(nil, intPtr(1))
	assert.Nil(t, reverse)
	assert.Equal(t, 1, *apply)

	reverse, apply = winnerTransition(nil, intPtr(2))
	assert.Nil(t, reverse)
	assert.Equal(t, 2, *apply)
}

func TestWinnerTransitionFlipWinner(t *testing.T) {
	reverse, apply := winnerTransition(intPtr(1), intPtr(2))
	assert.Equal(t, 1, *reverse)
	assert.Equal(t, 2, *apply)

	reverse, apply = winnerTransition(intPtr(2), intPtr(1))
	assert.Equal(t, 2, *reverse)
	assert.Equal(t, 1, *apply)
}

func TestWinnerTransitionClearWinner(t *testing.T) {
	reverse, apply := winnerTransition(intPtr(1), nil)
	assert.Equal(t, 1, *reverse)
	assert.Nil(t, apply)
}

// Applying a transition and then its inverse must restore the original
// stat deltas: flip 1->2 then 2->1 nets out to reverse+apply pairs that
// cancel for each team.
func TestWinnerTransitionRoundTrip(t *testing.T) {
	// Tally per-team net delta across 1->2 followed by 2->1.
	net := map[int]int{}
	applyStep := func(reverse, apply *int) {
		if reverse != nil {
			net[*reverse]--
		}
		if apply != nil {
			net[*apply]++
		}
	}

	applyStep(winnerTransition(intPtr(1), intPtr(2)))
	applyStep(winnerTransition(intPtr(2), intPtr(1)))

	assert.Equal(t, 0, net[1])
	assert.Equal(t, 0, net[2])
}
