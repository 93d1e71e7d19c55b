// Package frontier tracks simulation progress from pending deliveries.
//
// Every actor with a non-empty mailbox contributes one pointstamp: the tick
// of its earliest queued delivery. The frontier is the antichain of minimal
// pointstamps, i.e. every pointstamp sharing the earliest pending tick.
// An actor may consider tick t settled only when no other actor has a
// delivery pending at any tick <= t, because that delivery could still
// produce a message for it.
//
// When no pointstamps remain the simulation is idle: further ticks cannot
// change any state.
package frontier

import "github.com/daviddao/tickboard/pkg/model"

// ComputeFrontier returns the antichain of minimal pending pointstamps.
// A pointstamp p is in the frontier iff no other pending pointstamp q has
// q.Tick < p.Tick.
func ComputeFrontier(pending []model.Pointstamp) []model.Pointstamp {
	var frontier []model.Pointstamp
	for _, p := range pending {
		dominated := false
		for _, q := range pending {
			if q.ActorID != p.ActorID && q.Tick < p.Tick {
				dominated = true
				break
			}
		}
		if !dominated {
			frontier = append(frontier, p)
		}
	}
	return frontier
}

// Status is the result of a quiescence check for one actor at one tick.
type Status struct {
	Quiescent bool               `json:"quiescent"`
	Frontier  []model.Pointstamp `json:"frontier"`
	BlockedBy []model.Pointstamp `json:"blocked_by,omitempty"`
}

// ComputeFrontierStatus checks whether actorID can treat tick as settled,
// given the pending pointstamps of all actors.
func ComputeFrontierStatus(actorID, tick int64, pending []model.Pointstamp) Status {
	status := Status{
		Quiescent: true,
		Frontier:  ComputeFrontier(pending),
	}
	for _, p := range pending {
		if p.ActorID == actorID {
			continue
		}
		if p.LessEq(tick) {
			status.Quiescent = false
			status.BlockedBy = append(status.BlockedBy, p)
		}
	}
	return status
}

// Idle reports whether nothing is pending anywhere.
func Idle(pending []model.Pointstamp) bool { return len(pending) == 0 }
