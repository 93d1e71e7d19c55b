package board

import (
	"fmt"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/daviddao/tickboard/pkg/actor"
	"github.com/daviddao/tickboard/pkg/errors"
	"github.com/daviddao/tickboard/pkg/logutil"
	"github.com/daviddao/tickboard/pkg/protocol"
)

// Worker serves the sessions bound to it. It is created and spawned by a
// Dispatcher.
type Worker struct {
	actor.Cell

	index    int
	store    *Store
	sessions map[int64]actor.Actor
	stopped  bool
	logger   *zap.Logger
}

// NewWorker returns an unspawned worker owning a fresh Store built from opts.
// Stores are never shared between workers.
func NewWorker(index int, opts ...StoreOption) *Worker {
	return &Worker{
		index:    index,
		store:    NewStore(opts...),
		sessions: make(map[int64]actor.Actor),
		logger:   log.L(),
	}
}

// Name implements actor.Named.
func (w *Worker) Name() string { return fmt.Sprintf("worker-%d", w.index) }

// OnStart implements actor.Starter.
func (w *Worker) OnStart() {
	w.logger = logutil.NewLogger4Actor(w.Name(), int64(w.ID()))
}

// Store returns the worker's own message store.
func (w *Worker) Store() *Store { return w.store }

// Sessions returns the number of bound sessions.
func (w *Worker) Sessions() int { return len(w.sessions) }

// Stopped reports whether the worker has processed a Stop.
func (w *Worker) Stopped() bool { return w.stopped }

// Tell validates msg and queues it. Unknown message types, requests on an
// unbound session and malformed requests are rejected before queueing.
func (w *Worker) Tell(msg actor.Message) error {
	if err := w.validate(msg); err != nil {
		return err
	}
	return w.Cell.Tell(msg)
}

func (w *Worker) validate(msg actor.Message) error {
	switch m := msg.(type) {
	case protocol.InitCommunication:
		if m.Client == nil {
			return errors.ErrUnknownClient.GenWithStackByArgs()
		}
		return nil
	case protocol.Stop:
		return nil
	case protocol.SessionRequest:
		if _, ok := w.sessions[m.Communication()]; !ok {
			return errors.ErrUnknownClient.GenWithStackByArgs()
		}
		switch r := m.(type) {
		case protocol.RemoveLikeOrDislike:
			if !r.Type.Valid() {
				return errors.ErrUnknownRemoveKind.GenWithStackByArgs()
			}
		case protocol.Reaction:
			if !r.Emoji.Valid() {
				return errors.ErrUnknownEmoji.GenWithStackByArgs(string(r.Emoji))
			}
		}
		return nil
	default:
		return errors.ErrUnknownMessage.GenWithStackByArgs()
	}
}

// Receive implements actor.Actor.
func (w *Worker) Receive(msg actor.Message) error {
	if w.stopped {
		w.logger.Warn("drop message delivered after stop", zap.String("kind", actor.KindOf(msg)))
		return nil
	}
	if err := w.validate(msg); err != nil {
		return err
	}

	switch m := msg.(type) {
	case protocol.InitCommunication:
		return w.handleInit(m)
	case protocol.FinishCommunication:
		return w.handleFinish(m)
	case protocol.Stop:
		return w.handleStop(m)

	case protocol.Publish:
		id, err := w.store.Publish(m.Item)
		return w.respond(m, protocol.OperationAck{CommunicationID: m.CommunicationID, ItemID: id}, err)
	case protocol.Edit:
		err := w.store.Edit(m.ItemID, m.Author, m.Text)
		return w.respond(m, protocol.OperationAck{CommunicationID: m.CommunicationID}, err)
	case protocol.Delete:
		err := w.store.Delete(m.ItemID, m.Author)
		return w.respond(m, protocol.OperationAck{CommunicationID: m.CommunicationID}, err)
	case protocol.Like:
		points, err := w.store.Like(m.ItemID, m.Author)
		return w.respond(m, protocol.ReactionResponse{CommunicationID: m.CommunicationID, Points: points}, err)
	case protocol.Dislike:
		points, err := w.store.Dislike(m.ItemID, m.Author)
		return w.respond(m, protocol.ReactionResponse{CommunicationID: m.CommunicationID, Points: points}, err)
	case protocol.RemoveLikeOrDislike:
		points, err := w.store.RemoveLikeOrDislike(m.ItemID, m.Author, m.Type)
		return w.respond(m, protocol.ReactionResponse{CommunicationID: m.CommunicationID, Points: points}, err)
	case protocol.Reaction:
		points, err := w.store.React(m.ItemID, m.Author, m.Emoji)
		return w.respond(m, protocol.ReactionResponse{CommunicationID: m.CommunicationID, Points: points}, err)
	case protocol.RetrieveMessages:
		items, err := w.store.Retrieve(m.Author)
		return w.respond(m, protocol.FoundMessages{CommunicationID: m.CommunicationID, Items: items}, err)
	case protocol.SearchMessages:
		items, err := w.store.Search(m.Author, m.Query)
		return w.respond(m, protocol.FoundMessages{CommunicationID: m.CommunicationID, Items: items}, err)
	case protocol.Report:
		banned, err := w.store.Report(m.Reporter, m.Reported)
		if err == nil && banned {
			banCounter.Inc()
			w.logger.Info("author banned", zap.String("author", m.Reported), zap.String("reporter", m.Reporter))
			return w.respond(m, protocol.UserBanned{CommunicationID: m.CommunicationID, Author: m.Reported}, nil)
		}
		return w.respond(m, protocol.OperationAck{CommunicationID: m.CommunicationID}, err)
	}
	return errors.ErrUnknownMessage.GenWithStackByArgs()
}

func (w *Worker) handleInit(m protocol.InitCommunication) error {
	if _, ok := w.sessions[m.CommunicationID]; ok {
		operationCounter.WithLabelValues(protocol.KindInitCommunication, "failed").Inc()
		return m.Client.Tell(protocol.OperationFailed{
			CommunicationID: m.CommunicationID,
			Reason:          fmt.Sprintf("communication id %d is already in use", m.CommunicationID),
		})
	}
	w.sessions[m.CommunicationID] = m.Client
	sessionCounter.WithLabelValues("opened").Inc()
	operationCounter.WithLabelValues(protocol.KindInitCommunication, "ok").Inc()
	w.logger.Debug("session opened", zap.Int64("communication_id", m.CommunicationID))
	return m.Client.Tell(protocol.InitAck{Worker: w, CommunicationID: m.CommunicationID})
}

func (w *Worker) handleFinish(m protocol.FinishCommunication) error {
	client := w.sessions[m.CommunicationID]
	delete(w.sessions, m.CommunicationID)
	sessionCounter.WithLabelValues("closed").Inc()
	operationCounter.WithLabelValues(protocol.KindFinishCommunication, "ok").Inc()
	w.logger.Debug("session closed", zap.Int64("communication_id", m.CommunicationID))
	return client.Tell(protocol.FinishAck{CommunicationID: m.CommunicationID})
}

func (w *Worker) handleStop(m protocol.Stop) error {
	w.logger.Info("worker stopping", zap.Int("sessions", len(w.sessions)))
	w.sessions = make(map[int64]actor.Actor)
	w.stopped = true
	if m.Sender != nil {
		if err := m.Sender.Tell(protocol.StopAck{Sender: w}); err != nil {
			return err
		}
	}
	w.System().Stop(w)
	return nil
}

// respond sends ok to the session's client, or turns a store rejection into
// the matching failure reply. Structural errors are returned unchanged.
func (w *Worker) respond(req protocol.SessionRequest, ok protocol.Reply, err error) error {
	client := w.sessions[req.Communication()]
	reply, result := ok, "ok"
	if err != nil {
		if !errors.IsRejection(err) {
			return err
		}
		if errors.ErrUserBanned.Equal(err) {
			reply, result = protocol.UserBanned{
				CommunicationID: req.Communication(),
				Author:          protocol.Requester(req),
			}, "banned"
		} else {
			reply, result = protocol.OperationFailed{
				CommunicationID: req.Communication(),
				Reason:          err.Error(),
			}, "failed"
		}
	}
	if _, banned := reply.(protocol.UserBanned); banned {
		result = "banned"
	}
	operationCounter.WithLabelValues(req.Kind(), result).Inc()
	w.logger.Debug("operation handled",
		zap.String("op", req.Kind()),
		zap.String("result", result),
		zap.Int64("communication_id", req.Communication()),
		logutil.ShortError(err))
	return client.Tell(reply)
}
