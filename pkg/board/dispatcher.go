package board

import (
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/daviddao/tickboard/pkg/actor"
	"github.com/daviddao/tickboard/pkg/errors"
	"github.com/daviddao/tickboard/pkg/logutil"
	"github.com/daviddao/tickboard/pkg/protocol"
)

// Dispatcher routes session requests to a pool of workers and fans out
// shutdown. It never validates requests and never stops itself.
type Dispatcher struct {
	actor.Cell

	size     int
	opts     []StoreOption
	workers  []*Worker
	next     int
	log      []actor.Message
	stopping bool
	acked    map[actor.ID]struct{}
	logger   *zap.Logger
}

// NewDispatcher returns an unspawned dispatcher that will start size
// workers. Each worker builds its own Store from opts.
func NewDispatcher(size int, opts ...StoreOption) *Dispatcher {
	if size < 1 {
		size = 1
	}
	return &Dispatcher{
		size:   size,
		opts:   opts,
		acked:  make(map[actor.ID]struct{}),
		logger: log.L(),
	}
}

// Name implements actor.Named.
func (d *Dispatcher) Name() string { return "dispatcher" }

// OnStart spawns the worker pool.
func (d *Dispatcher) OnStart() {
	d.logger = logutil.NewLogger4Actor(d.Name(), int64(d.ID()))
	d.workers = make([]*Worker, 0, d.size)
	for i := 0; i < d.size; i++ {
		w := NewWorker(i, d.opts...)
		d.System().Spawn(w)
		d.workers = append(d.workers, w)
	}
	d.logger.Info("worker pool started", zap.Int("workers", d.size))
}

// Workers returns the pool in spawn order.
func (d *Dispatcher) Workers() []*Worker {
	return append([]*Worker(nil), d.workers...)
}

// Items returns the number of live items across every worker's store.
func (d *Dispatcher) Items() int {
	n := 0
	for _, w := range d.workers {
		n += w.store.Len()
	}
	return n
}

// Log returns every message the dispatcher has handled, in order.
func (d *Dispatcher) Log() []actor.Message {
	return append([]actor.Message(nil), d.log...)
}

// Stopping reports whether a Stop has been handled.
func (d *Dispatcher) Stopping() bool { return d.stopping }

// Stopped reports whether every worker acknowledged a Stop.
func (d *Dispatcher) Stopped() bool {
	return d.stopping && len(d.acked) == len(d.workers)
}

// Tell queues msg. An InitCommunication without a client is refused here,
// at the sender, rather than when the router forwards it.
func (d *Dispatcher) Tell(msg actor.Message) error {
	if m, ok := msg.(protocol.InitCommunication); ok && m.Client == nil {
		return errors.ErrUnknownClient.GenWithStackByArgs()
	}
	return d.Cell.Tell(msg)
}

// Receive implements actor.Actor.
func (d *Dispatcher) Receive(msg actor.Message) error {
	d.log = append(d.log, msg)
	switch m := msg.(type) {
	case protocol.InitCommunication:
		if d.stopping {
			d.logger.Warn("reject session while stopping", zap.Int64("communication_id", m.CommunicationID))
			if m.Client == nil {
				return nil
			}
			return m.Client.Tell(protocol.OperationFailed{
				CommunicationID: m.CommunicationID,
				Reason:          "dispatcher is stopping",
			})
		}
		w := d.workers[d.next%len(d.workers)]
		d.next++
		return w.Tell(m)
	case protocol.Stop:
		d.stopping = true
		d.logger.Info("stopping worker pool", zap.Int("workers", len(d.workers)))
		for _, w := range d.workers {
			if err := w.Tell(protocol.Stop{Sender: d}); err != nil {
				return err
			}
		}
		return nil
	case protocol.StopAck:
		if m.Sender != nil {
			d.acked[m.Sender.ID()] = struct{}{}
		}
		if d.Stopped() {
			d.logger.Info("worker pool stopped")
		}
		return nil
	default:
		d.logger.Warn("dispatcher dropped message", zap.String("kind", actor.KindOf(msg)))
		return nil
	}
}
