// Package clock implements the logical clock that drives a simulation.
//
// Time in the simulation is a plain tick counter. It starts at zero and only
// moves forward when the actor system completes a tick, so every actor
// observes the same "now" for the whole of a tick.
//
// Two rules govern message timing:
//
//	R1 (send): a message sent at tick t with duration d is due at t+d.
//	R2 (delivery): due messages are delivered in (due tick, send sequence)
//	    order, see DeliveryLess.
//
// Note: Clock is not goroutine-safe. A Clock is owned by exactly one
// actor system, which runs on a single goroutine.
package clock

// Clock is a monotonically increasing tick counter. Not goroutine-safe.
type Clock struct {
	ts int64
}

// Tick advances the clock by one tick and returns the new value.
func (c *Clock) Tick() int64 {
	c.ts++
	return c.ts
}

// Value returns the current tick without advancing it.
func (c *Clock) Value() int64 { return c.ts }

// Due applies R1: the tick at which a message of the given duration, sent
// now, becomes deliverable.
func (c *Clock) Due(duration int64) int64 { return c.ts + duration }

// DeliveryLess defines the deterministic total order of pending deliveries.
// Delivery A goes first if:
//
//	dueA < dueB, or
//	dueA == dueB and seqA < seqB
//
// Send sequences are unique per system, so ties between equal due ticks are
// resolved FIFO.
func DeliveryLess(dueA, seqA, dueB, seqB int64) bool {
	if dueA != dueB {
		return dueA < dueB
	}
	return seqA < seqB
}
