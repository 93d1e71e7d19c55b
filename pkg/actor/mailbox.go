package actor

import (
	"github.com/google/btree"

	"github.com/daviddao/tickboard/pkg/clock"
)

// Envelope is a queued delivery.
type Envelope struct {
	Due     int64
	Seq     int64
	Message Message
}

func envelopeLess(a, b Envelope) bool {
	return clock.DeliveryLess(a.Due, a.Seq, b.Due, b.Seq)
}

// mailbox orders deliveries by (due tick, send sequence).
type mailbox struct {
	tree *btree.BTreeG[Envelope]
}

func newMailbox() *mailbox {
	return &mailbox{tree: btree.NewG(16, envelopeLess)}
}

func (m *mailbox) push(e Envelope) {
	m.tree.ReplaceOrInsert(e)
}

// popDue removes and returns the first envelope due at or before now.
func (m *mailbox) popDue(now int64) (Envelope, bool) {
	e, ok := m.tree.Min()
	if !ok || e.Due > now {
		return Envelope{}, false
	}
	m.tree.DeleteMin()
	return e, true
}

func (m *mailbox) head() (Envelope, bool) {
	return m.tree.Min()
}

func (m *mailbox) pending() []Envelope {
	out := make([]Envelope, 0, m.tree.Len())
	m.tree.Ascend(func(e Envelope) bool {
		out = append(out, e)
		return true
	})
	return out
}
