package actor

import (
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/daviddao/tickboard/pkg/clock"
	"github.com/daviddao/tickboard/pkg/errors"
	"github.com/daviddao/tickboard/pkg/model"
)

// System owns the clock, the registry of live actors and the id and send
// sequence counters. Not goroutine-safe.
type System struct {
	clock     clock.Clock
	nextID    ID
	nextSeq   int64
	actors    []Actor
	observers []Observer
}

// Option configures a System.
type Option func(*System)

// WithObserver attaches o to every spawn, stop, send and delivery.
func WithObserver(o Observer) Option {
	return func(s *System) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// NewSystem returns an empty system at tick 0.
func NewSystem(opts ...Option) *System {
	s := &System{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentTime returns the current tick.
func (s *System) CurrentTime() int64 { return s.clock.Value() }

// Actors returns the registered actors in spawn order.
func (s *System) Actors() []Actor {
	return append([]Actor(nil), s.actors...)
}

// Spawn registers a, runs its start hook and stamps its spawn time. The
// returned id is unique within s. Spawning a live actor returns its existing
// id. A stopped actor of s is spawned again as a new actor: it gets the next
// id and an empty mailbox, so deliveries queued for its old identity are
// dropped.
func (s *System) Spawn(a Actor) ID {
	c := a.cell()
	if c.live || (c.system != nil && c.system != s) {
		log.Warn("actor spawned twice", zap.Int64("actor_id", int64(c.id)), zap.String("actor", NameOf(a)))
		return c.id
	}
	if c.system == s {
		log.Debug("respawn stopped actor", zap.Int64("old_actor_id", int64(c.id)),
			zap.String("actor", NameOf(a)), zap.Int("dropped", c.mailbox.tree.Len()))
	}
	c.id = s.nextID
	s.nextID++
	c.system = s
	c.live = true
	c.self = a
	c.mailbox = newMailbox()
	s.actors = append(s.actors, a)

	if st, ok := a.(Starter); ok {
		st.OnStart()
	}
	c.spawnTime = s.clock.Value()

	spawnCounter.Inc()
	for _, o := range s.observers {
		o.OnSpawn(a, c.spawnTime)
	}
	log.Debug("actor spawned", zap.Int64("actor_id", int64(c.id)), zap.String("actor", NameOf(a)),
		zap.Int64("tick", c.spawnTime))
	return c.id
}

// Stop removes a from the registry. Its mailbox is left untouched and never
// drained again. Stopping an unregistered actor is a no-op.
func (s *System) Stop(a Actor) {
	for i, x := range s.actors {
		if x == a {
			s.actors = append(s.actors[:i:i], s.actors[i+1:]...)
			a.cell().live = false
			stopCounter.Inc()
			now := s.clock.Value()
			for _, o := range s.observers {
				o.OnStop(a, now)
			}
			log.Debug("actor stopped", zap.Int64("actor_id", int64(a.ID())), zap.String("actor", NameOf(a)),
				zap.Int64("tick", now))
			return
		}
	}
}

// Tick steps every actor registered at the start of the tick, in spawn
// order, then advances the clock. Actors spawned or stopped during the tick
// take effect from the next one. If a step fails the tick is aborted and the
// clock is not advanced.
func (s *System) Tick() error {
	snapshot := s.Actors()
	for _, a := range snapshot {
		if err := s.Step(a); err != nil {
			return err
		}
	}
	s.clock.Tick()
	tickCounter.Inc()
	return nil
}

// RunFor runs exactly n ticks.
func (s *System) RunFor(n int) error {
	for i := 0; i < n; i++ {
		if err := s.Tick(); err != nil {
			return err
		}
	}
	return nil
}

// RunUntil ticks while the current time is at most t, so the clock ends at
// t+1 when starting at or below t.
func (s *System) RunUntil(t int64) error {
	for s.clock.Value() <= t {
		if err := s.Tick(); err != nil {
			return err
		}
	}
	return nil
}

// Step delivers every message queued for a whose due tick has been reached,
// in delivery order. Each message is removed before Receive is called; on
// error the remaining due messages stay queued.
func (s *System) Step(a Actor) error {
	c := a.cell()
	if c.system != s {
		return errors.ErrActorNotSpawned.GenWithStackByArgs()
	}
	now := s.clock.Value()
	for {
		env, ok := c.mailbox.popDue(now)
		if !ok {
			return nil
		}
		kind := KindOf(env.Message)
		deliverCounter.WithLabelValues(kind).Inc()
		for _, o := range s.observers {
			o.OnDeliver(a, env.Message, now)
		}
		if err := a.Receive(env.Message); err != nil {
			log.Debug("receive failed", zap.Int64("actor_id", int64(c.id)), zap.String("kind", kind),
				zap.Int64("tick", now), zap.Error(err))
			return err
		}
	}
}

// Pending returns, for every registered actor with a non-empty mailbox, the
// pointstamp of its earliest queued delivery.
func (s *System) Pending() []model.Pointstamp {
	var ps []model.Pointstamp
	for _, a := range s.actors {
		if e, ok := a.cell().mailbox.head(); ok {
			ps = append(ps, model.Pointstamp{Tick: e.Due, ActorID: int64(a.ID())})
		}
	}
	return ps
}

func (s *System) enqueue(c *Cell, msg Message) {
	now := s.clock.Value()
	env := Envelope{Due: s.clock.Due(msg.Duration()), Seq: s.nextSeq, Message: msg}
	s.nextSeq++
	c.mailbox.push(env)
	c.told = append(c.told, msg)

	sendCounter.WithLabelValues(KindOf(msg)).Inc()
	for _, o := range s.observers {
		o.OnSend(c.self, msg, now, env.Due)
	}
}
