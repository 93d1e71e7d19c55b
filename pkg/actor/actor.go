package actor

import (
	"fmt"

	"github.com/daviddao/tickboard/pkg/errors"
)

// ID identifies an actor within one System. IDs are assigned at spawn and
// never reused.
type ID int64

// Message is an immutable payload. Duration is the number of ticks between
// send and delivery and must be positive.
type Message interface {
	Duration() int64
}

// Actor is a participant in a System. Implementations embed Cell, which
// supplies every method except Receive.
type Actor interface {
	// ID returns the id assigned at spawn.
	ID() ID
	// SpawnTime returns the tick at which the actor was spawned.
	SpawnTime() int64
	// Tell queues msg for delivery at now+msg.Duration().
	Tell(msg Message) error
	// Receive handles one delivered message. A non-nil error aborts the
	// current tick.
	Receive(msg Message) error
	// MessageLog returns every message told to the actor, in send order.
	MessageLog() []Message

	cell() *Cell
}

// Starter is implemented by actors that need to act when spawned.
type Starter interface {
	// OnStart runs after the actor is registered, before its spawn time is
	// stamped.
	OnStart()
}

// Named is implemented by actors with a human readable name.
type Named interface {
	Name() string
}

// NameOf returns a display name for a.
func NameOf(a Actor) string {
	if n, ok := a.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", a)
}

// KindOf returns a short name for the type of msg.
func KindOf(msg Message) string {
	if k, ok := msg.(interface{ Kind() string }); ok {
		return k.Kind()
	}
	return fmt.Sprintf("%T", msg)
}

// Cell is the embeddable state every actor carries: identity, mailbox and
// message log. The zero value is ready to be spawned.
type Cell struct {
	id        ID
	spawnTime int64
	system    *System
	live      bool
	self      Actor
	mailbox   *mailbox
	told      []Message
}

func (c *Cell) cell() *Cell { return c }

// ID returns the id assigned at spawn.
func (c *Cell) ID() ID { return c.id }

// SpawnTime returns the tick at which the actor was spawned.
func (c *Cell) SpawnTime() int64 { return c.spawnTime }

// System returns the system the actor was spawned into, or nil.
func (c *Cell) System() *System { return c.system }

// Tell queues msg. It fails for nil messages, non-positive durations and
// actors that were never spawned. Telling a stopped actor succeeds but the
// message is never delivered.
func (c *Cell) Tell(msg Message) error {
	if msg == nil {
		return errors.ErrNilMessage.GenWithStackByArgs()
	}
	if c.system == nil {
		return errors.ErrActorNotSpawned.GenWithStackByArgs()
	}
	if d := msg.Duration(); d <= 0 {
		return errors.ErrInvalidDuration.GenWithStackByArgs(KindOf(msg), d)
	}
	c.system.enqueue(c, msg)
	return nil
}

// MessageLog returns a copy of every message told to the actor.
func (c *Cell) MessageLog() []Message {
	return append([]Message(nil), c.told...)
}

// Pending returns the queued deliveries in delivery order.
func (c *Cell) Pending() []Envelope {
	if c.mailbox == nil {
		return nil
	}
	return c.mailbox.pending()
}
