// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package quorum decides when a like completes a session's match.
package quorum

import "github.com/danielhkuo/swivo/models"

// Tally is the state observed inside the like transaction, after the like
// row has been written.
type Tally struct {
	Status           string
	QuorumN          int
	ParticipantCount int
	LikeCount        int // distinct participants who liked the option
}

type Outcome int

const (
	// Pending means the option has not reached quorum yet.
	Pending Outcome = iota
	// Unreachable means quorum_n exceeds the current participant count.
	Unreachable
	// Transition means the caller must perform the open->matched swap.
	Transition
	// Settled means the session already left the open state; the like is
	// recorded but cannot change the outcome.
	Settled
)

func (o Outcome) String() string {
	switch o {
	case Unreachable:
		return "unreachable"
	case Transition:
		return "transition"
	case Settled:
		return "settled"
	}
	return "pending"
}

// Reached reports whether likes meet the threshold for the participants
// present right now.
func Reached(t Tally) bool {
	if t.QuorumN < 1 || t.QuorumN > t.ParticipantCount {
		return false
	}
	return t.LikeCount >= t.QuorumN
}

// Evaluate decides what a like should do to its session. Only a Transition
// outcome may change session state, and the store must still apply it as
// a compare-and-swap on status so that the first committer wins.
func Evaluate(t Tally) Outcome {
	if t.Status != models.StatusOpen {
		return Settled
	}
	if t.QuorumN > t.ParticipantCount {
		return Unreachable
	}
	if Reached(t) {
		return Transition
	}
	return Pending
}
