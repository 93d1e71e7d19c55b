package scenario

import (
	"fmt"

	"github.com/pingcap/log"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/daviddao/tickboard/pkg/actor"
	"github.com/daviddao/tickboard/pkg/board"
	"github.com/daviddao/tickboard/pkg/config"
	"github.com/daviddao/tickboard/pkg/errors"
	"github.com/daviddao/tickboard/pkg/frontier"
	"github.com/daviddao/tickboard/pkg/logutil"
	"github.com/daviddao/tickboard/pkg/model"
	"github.com/daviddao/tickboard/pkg/protocol"
)

// Entry is the outcome of one step.
type Entry struct {
	Step   int    `json:"step"`
	Op     string `json:"op"`
	Tick   int64  `json:"tick"`
	Reply  string `json:"reply"`
	Detail string `json:"detail,omitempty"`
	OK     bool   `json:"ok"`
}

// Result is the transcript of a finished run.
type Result struct {
	Entries []Entry `json:"entries"`
	// Ticks is the kernel time after the last step drained.
	Ticks int64 `json:"ticks"`
	// Items is the number of items left across the workers' stores.
	Items int `json:"items"`
	// Quiescent is true when no delivery was pending at the end.
	Quiescent bool `json:"quiescent"`
	// Banned lists the banned authors seen by report steps.
	Banned []string `json:"banned,omitempty"`
	// Frontier holds the earliest pending deliveries of a run that did not
	// go quiet. BlockedBy is the part of it, due by the final tick, held by
	// actors other than the client.
	Frontier  []model.Pointstamp `json:"frontier,omitempty"`
	BlockedBy []model.Pointstamp `json:"blocked_by,omitempty"`
}

// Failed returns the entries whose reply did not match.
func (r *Result) Failed() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if !e.OK {
			out = append(out, e)
		}
	}
	return out
}

// Option configures Run.
type Option func(*runner)

// WithObserver attaches o to the kernel before anything is spawned.
func WithObserver(o actor.Observer) Option {
	return func(r *runner) { r.sysOpts = append(r.sysOpts, actor.WithObserver(o)) }
}

type runner struct {
	sysOpts []actor.Option

	sys      *actor.System
	disp     *board.Dispatcher
	client   *actor.Probe
	sc       *Scenario
	maxTicks int
	sessions map[int64]actor.Actor
	lastItem int64
	result   *Result
	errs     error
}

// Run executes sc against a fresh system configured by cfg. A nil cfg uses
// the defaults. The returned error aggregates every step whose reply did not
// match its expectation; the transcript is returned either way unless the
// scenario itself is invalid.
func Run(cfg *config.Config, sc *Scenario, opts ...Option) (*Result, error) {
	if cfg == nil {
		cfg = config.GetDefaultConfig()
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	r := &runner{
		sc:       sc,
		maxTicks: cfg.MaxTicks,
		sessions: make(map[int64]actor.Actor),
		result:   &Result{},
	}
	if sc.MaxTicks > 0 {
		r.maxTicks = sc.MaxTicks
	}
	for _, opt := range opts {
		opt(r)
	}

	workers := cfg.Workers
	if sc.Workers > 0 {
		workers = sc.Workers
	}
	r.sys = actor.NewSystem(r.sysOpts...)
	r.disp = board.NewDispatcher(workers,
		board.WithMaxTextLength(cfg.MaxTextLength),
		board.WithBanThreshold(cfg.BanThreshold),
	)
	r.sys.Spawn(r.disp)
	r.client = actor.NewProbe("client")
	r.sys.Spawn(r.client)

	for i, st := range sc.Steps {
		if !r.step(i+1, st) {
			break
		}
	}
	r.drain()

	r.result.Ticks = r.sys.CurrentTime()
	r.result.Items = r.disp.Items()
	if pending := r.sys.Pending(); frontier.Idle(pending) {
		r.result.Quiescent = true
	} else {
		st := frontier.ComputeFrontierStatus(int64(r.client.ID()), r.result.Ticks, pending)
		r.result.Frontier, r.result.BlockedBy = st.Frontier, st.BlockedBy
		log.Warn("scenario ended with deliveries pending",
			zap.Int("pending", len(pending)),
			zap.Int("blocked_by", len(st.BlockedBy)))
	}
	log.Info("scenario finished",
		zap.Int("steps", len(r.result.Entries)),
		zap.Int("failed", len(r.result.Failed())),
		zap.Int64("ticks", r.result.Ticks))
	return r.result, r.errs
}

// step runs one step and reports whether the run can continue.
func (r *runner) step(n int, st Step) bool {
	entry := Entry{Step: n, Op: st.Op}
	comm := r.sc.CommunicationID
	if st.Comm != 0 {
		comm = st.Comm
	}

	if st.Op == OpStop {
		return r.stop(entry, st)
	}

	target, msg := r.build(st, comm)
	if err := target.Tell(msg); err != nil {
		entry.Tick = r.sys.CurrentTime()
		entry.Reply = ExpectError
		entry.Detail = err.Error()
		r.check(&entry, st, st.Expect == ExpectError)
		return true
	}

	reply, err := r.client.Await(r.maxTicks)
	entry.Tick = r.sys.CurrentTime()
	if err != nil {
		entry.Reply = ExpectError
		entry.Detail = err.Error()
		r.check(&entry, st, false)
		// a silent step is recoverable, an aborted tick is not
		return errors.ErrNoReply.Equal(err)
	}
	entry.Reply = actor.KindOf(reply)
	ok := st.Expect == "" || st.Expect == entry.Reply
	switch m := reply.(type) {
	case protocol.InitAck:
		r.sessions[m.CommunicationID] = m.Worker
	case protocol.FinishAck:
		delete(r.sessions, m.CommunicationID)
	case protocol.OperationAck:
		if st.Op == OpPublish && m.ItemID > 0 {
			r.lastItem = m.ItemID
			entry.Detail = fmt.Sprintf("item %d", m.ItemID)
		}
	case protocol.OperationFailed:
		entry.Detail = m.Reason
	case protocol.ReactionResponse:
		entry.Detail = fmt.Sprintf("%d points", m.Points)
		if st.Points != nil && *st.Points != m.Points {
			ok = false
			entry.Detail += fmt.Sprintf(", want %d", *st.Points)
		}
	case protocol.FoundMessages:
		entry.Detail = fmt.Sprintf("%d items", len(m.Items))
		if st.Found != nil && *st.Found != len(m.Items) {
			ok = false
			entry.Detail += fmt.Sprintf(", want %d", *st.Found)
		}
	case protocol.UserBanned:
		entry.Detail = m.Author
		if st.Op == OpReport {
			r.result.Banned = append(r.result.Banned, m.Author)
		}
	}
	r.check(&entry, st, ok)
	return true
}

func (r *runner) stop(entry Entry, st Step) bool {
	if err := r.disp.Tell(protocol.Stop{}); err != nil {
		entry.Reply = ExpectError
		entry.Detail = err.Error()
		r.check(&entry, st, st.Expect == ExpectError)
		return true
	}
	for i := 0; i < r.maxTicks && !r.disp.Stopped(); i++ {
		if err := r.sys.Tick(); err != nil {
			entry.Reply = ExpectError
			entry.Detail = err.Error()
			r.check(&entry, st, false)
			return false
		}
	}
	entry.Tick = r.sys.CurrentTime()
	if r.disp.Stopped() {
		entry.Reply = ExpectStopped
		r.sessions = make(map[int64]actor.Actor)
	} else {
		entry.Reply = "stopping"
		entry.Detail = fmt.Sprintf("pool not drained after %d ticks", r.maxTicks)
	}
	r.check(&entry, st, st.Expect == "" || st.Expect == entry.Reply)
	return true
}

// build returns the recipient and message of a non-stop step. Requests on a
// session the client never opened go to the first worker, which rejects
// them.
func (r *runner) build(st Step, comm int64) (actor.Actor, actor.Message) {
	if st.Op == OpInit {
		return r.disp, protocol.InitCommunication{Client: r.client, CommunicationID: comm}
	}
	target, ok := r.sessions[comm]
	if !ok {
		target = r.disp.Workers()[0]
	}
	item := st.Item
	if item == 0 {
		item = r.lastItem
	}

	var msg actor.Message
	switch st.Op {
	case OpFinish:
		msg = protocol.FinishCommunication{CommunicationID: comm}
	case OpPublish:
		msg = protocol.Publish{Item: model.Item{Author: st.Author, Text: st.Text}, CommunicationID: comm}
	case OpEdit:
		msg = protocol.Edit{ItemID: item, Author: st.Author, Text: st.Text, CommunicationID: comm}
	case OpDelete:
		msg = protocol.Delete{ItemID: item, Author: st.Author, CommunicationID: comm}
	case OpLike:
		msg = protocol.Like{Author: st.Author, CommunicationID: comm, ItemID: item}
	case OpDislike:
		msg = protocol.Dislike{Author: st.Author, CommunicationID: comm, ItemID: item}
	case OpRemove:
		msg = protocol.RemoveLikeOrDislike{Author: st.Author, CommunicationID: comm, ItemID: item, Type: model.LikeKind(st.Kind)}
	case OpReact:
		msg = protocol.Reaction{Author: st.Author, CommunicationID: comm, ItemID: item, Emoji: model.Emoji(st.Emoji)}
	case OpRetrieve:
		msg = protocol.RetrieveMessages{Author: st.Author, CommunicationID: comm}
	case OpSearch:
		msg = protocol.SearchMessages{Author: st.Author, Query: st.Query, CommunicationID: comm}
	case OpReport:
		msg = protocol.Report{Reporter: st.Author, CommunicationID: comm, Reported: st.Reported}
	}
	return target, msg
}

func (r *runner) check(entry *Entry, st Step, ok bool) {
	entry.OK = ok
	r.result.Entries = append(r.result.Entries, *entry)
	if ok {
		log.Debug("step passed", zap.Int("step", entry.Step), zap.String("op", entry.Op),
			zap.String("reply", entry.Reply))
		return
	}
	err := errors.ErrScenarioMismatch.FastGenByArgs(entry.Step, entry.Op, entry.Reply, expectation(st), entry.Detail)
	log.Warn("step failed", zap.Int("step", entry.Step), zap.String("op", entry.Op),
		logutil.ShortError(err))
	r.errs = multierr.Append(r.errs, err)
}

// drain lets in-flight messages land so the run ends quiescent when it can.
func (r *runner) drain() {
	for i := 0; i < r.maxTicks && !frontier.Idle(r.sys.Pending()); i++ {
		if err := r.sys.Tick(); err != nil {
			log.Warn("drain aborted", logutil.ShortError(err))
			return
		}
	}
}

func expectation(st Step) string {
	if st.Expect == "" {
		return "any reply"
	}
	return st.Expect
}
