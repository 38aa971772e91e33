package domain

import (
	"sort"
)

// Address identifies an account, token, organization or hook.
type Address string

// Checkpoint records the balance an account held from Time onwards.
type Checkpoint struct {
	Time    uint32 `json:"time"`
	Balance Amount `json:"balance"`
}

// Series is the balance history of one account within one token,
// strictly ascending by Time.
type Series []Checkpoint

// Len returns the number of checkpoints.
func (s Series) Len() int { return len(s) }

// floor returns the index of the checkpoint with the greatest Time <= t,
// or -1 if every checkpoint is later than t.
func (s Series) floor(t uint32) int {
	// first index with Time > t
	i := sort.Search(len(s), func(i int) bool { return s[i].Time > t })
	return i - 1
}

// BalanceAsOf returns the balance effective at logical time t. The boolean
// is false when the account had no history at t; callers treat that as 0.
func (s Series) BalanceAsOf(t uint32) (Amount, bool) {
	i := s.floor(t)
	if i < 0 {
		return Amount{}, false
	}
	return s[i].Balance, true
}

// Latest returns the most recent checkpoint.
func (s Series) Latest() (Checkpoint, bool) {
	if len(s) == 0 {
		return Checkpoint{}, false
	}
	return s[len(s)-1], true
}

// At returns the checkpoint at index.
func (s Series) At(index uint32) (Checkpoint, error) {
	if len(s) == 0 {
		return Checkpoint{}, ErrNoCheckpoint
	}
	if uint64(index) >= uint64(len(s)) {
		return Checkpoint{}, ErrCheckpointIndex.WithDetailsf("index %d, length %d", index, len(s))
	}
	return s[index], nil
}

// Append returns the series that results from recording balance at now.
//
// Only checkpoints some active proposal can still read survive: for each
// anchor (the creation time of an active proposal) the checkpoint with the
// greatest Time <= anchor is kept. The new checkpoint is then appended, or
// replaces the last retained one when it carries the same Time. The result
// therefore never holds more than len(anchors)+1 entries.
//
// now must not precede the latest checkpoint.
func (s Series) Append(now uint32, balance Amount, anchors []uint32) Series {
	keep := make([]int, 0, len(anchors))
	for _, a := range anchors {
		if i := s.floor(a); i >= 0 {
			keep = append(keep, i)
		}
	}
	sort.Ints(keep)

	out := make(Series, 0, len(keep)+1)
	last := -1
	for _, i := range keep {
		if i == last {
			continue
		}
		out = append(out, s[i])
		last = i
	}

	if n := len(out); n > 0 && out[n-1].Time == now {
		out[n-1].Balance = balance
		return out
	}
	return append(out, Checkpoint{Time: now, Balance: balance})
}
