package actor

import (
	"github.com/edwingeng/deque"

	"github.com/daviddao/tickboard/pkg/errors"
)

// Probe is an actor that records every delivered message in arrival order.
// Tests and scripted clients use it as the client end of a conversation.
type Probe struct {
	Cell
	name  string
	inbox deque.Deque
}

// NewProbe returns an unspawned probe.
func NewProbe(name string) *Probe {
	return &Probe{name: name, inbox: deque.NewDeque()}
}

// Name implements Named.
func (p *Probe) Name() string { return p.name }

// Receive implements Actor.
func (p *Probe) Receive(msg Message) error {
	p.inbox.PushBack(msg)
	return nil
}

// Len returns the number of received, unconsumed messages.
func (p *Probe) Len() int { return p.inbox.Len() }

// Next pops the oldest received message.
func (p *Probe) Next() (Message, bool) {
	if p.inbox.Empty() {
		return nil, false
	}
	return p.inbox.PopFront().(Message), true
}

// Await ticks the probe's system until a message has been received, at most
// maxTicks times, and pops it.
func (p *Probe) Await(maxTicks int) (Message, error) {
	if p.system == nil {
		return nil, errors.ErrActorNotSpawned.GenWithStackByArgs()
	}
	for i := 0; p.inbox.Empty(); i++ {
		if i >= maxTicks {
			return nil, errors.ErrNoReply.GenWithStackByArgs(maxTicks)
		}
		if err := p.system.Tick(); err != nil {
			return nil, err
		}
	}
	msg, _ := p.Next()
	return msg, nil
}
