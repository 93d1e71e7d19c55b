package board

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/daviddao/tickboard/pkg/actor"
	"github.com/daviddao/tickboard/pkg/errors"
	"github.com/daviddao/tickboard/pkg/model"
	"github.com/daviddao/tickboard/pkg/protocol"
)

type bogus struct{}

func (bogus) Duration() int64 { return 1 }

func TestWorkerRejectsUnknownSession(t *testing.T) {
	h := newHarness(t, 1)
	w := h.disp.Workers()[0]

	for _, msg := range []actor.Message{
		protocol.Publish{Item: draft("ann", "hi"), CommunicationID: 7},
		protocol.Like{Author: "ann", CommunicationID: 7, ItemID: 1},
		protocol.SearchMessages{Query: "x", CommunicationID: 7},
		protocol.FinishCommunication{CommunicationID: 7},
	} {
		err := w.Tell(msg)
		require.Error(t, err)
		require.True(t, errors.ErrUnknownClient.Equal(err), err.Error())
		require.Contains(t, err.Error(), "Unknown communication ID")
	}
	require.Empty(t, w.Pending())
	require.NoError(t, h.sys.RunFor(5))
	require.Zero(t, h.client.Len())
}

func TestWorkerRejectsUnknownMessages(t *testing.T) {
	h := newHarness(t, 1)
	w := h.disp.Workers()[0]

	for _, msg := range []actor.Message{nil, bogus{}, protocol.OperationAck{}, protocol.InitAck{}} {
		err := w.Tell(msg)
		require.True(t, errors.ErrUnknownMessage.Equal(err))
	}
	err := w.Receive(nil)
	require.True(t, errors.ErrUnknownMessage.Equal(err))
	require.Contains(t, err.Error(), "Worker received message of not existing type.")

	require.True(t, errors.ErrUnknownClient.Equal(w.Tell(protocol.InitCommunication{CommunicationID: 1})))
}

func TestWorkerRejectsMalformedRequests(t *testing.T) {
	h := newHarness(t, 1)
	w := h.open(t, 10)

	err := w.Tell(protocol.RemoveLikeOrDislike{Author: "ann", CommunicationID: 10, ItemID: 1})
	require.True(t, errors.ErrUnknownRemoveKind.Equal(err))
	require.Contains(t, err.Error(), "Unknown delete type.")

	err = w.Tell(protocol.Reaction{Author: "ann", CommunicationID: 10, ItemID: 1, Emoji: "thumbs"})
	require.True(t, errors.ErrUnknownEmoji.Equal(err))
}

func TestWorkerSessionLifecycle(t *testing.T) {
	h := newHarness(t, 1)
	w := h.open(t, 10)
	require.Equal(t, 1, h.disp.Workers()[0].Sessions())

	// a second init with the same id fails
	require.NoError(t, h.disp.Tell(protocol.InitCommunication{Client: h.client, CommunicationID: 10}))
	failed, ok := h.await(t).(protocol.OperationFailed)
	require.True(t, ok)
	require.Equal(t, int64(10), failed.CommunicationID)

	reply := h.ask(t, w, protocol.FinishCommunication{CommunicationID: 10})
	require.Equal(t, protocol.FinishAck{CommunicationID: 10}, reply)
	require.Zero(t, h.disp.Workers()[0].Sessions())

	err := w.Tell(protocol.Publish{Item: draft("ann", "late"), CommunicationID: 10})
	require.True(t, errors.ErrUnknownClient.Equal(err))
}

func TestWorkerInFlightRequestAfterFinish(t *testing.T) {
	h := newHarness(t, 1)
	w := h.open(t, 10)

	// publish takes longer than finish, so it arrives after the session is gone
	require.NoError(t, w.Tell(protocol.Publish{Item: draft("ann", "slow"), CommunicationID: 10}))
	require.NoError(t, w.Tell(protocol.FinishCommunication{CommunicationID: 10}))

	_, err := h.client.Await(awaitTicks)
	require.NoError(t, err)
	_, err = h.client.Await(awaitTicks)
	require.Error(t, err)
	require.True(t, errors.ErrUnknownClient.Equal(err))
}

func TestWorkerOperations(t *testing.T) {
	h := newHarness(t, 1)
	w := h.open(t, 10)
	const comm = 10

	ack, ok := h.ask(t, w, protocol.Publish{Item: draft("ann", "HelloWorld"), CommunicationID: comm}).(protocol.OperationAck)
	require.True(t, ok)
	require.Equal(t, int64(1), ack.ItemID)
	id := ack.ItemID

	reply := h.ask(t, w, protocol.Publish{Item: draft("ann", "Hello World"), CommunicationID: comm})
	require.IsType(t, protocol.OperationFailed{}, reply)
	require.Contains(t, reply.(protocol.OperationFailed).Reason, "limit is 10")

	require.IsType(t, protocol.OperationFailed{},
		h.ask(t, w, protocol.Edit{ItemID: id, Author: "ann", Text: "Edited too long", CommunicationID: comm}))
	require.IsType(t, protocol.OperationFailed{},
		h.ask(t, w, protocol.Edit{ItemID: id, Author: "bob", Text: "mine", CommunicationID: comm}))
	require.Equal(t, protocol.OperationAck{CommunicationID: comm},
		h.ask(t, w, protocol.Edit{ItemID: id, Author: "ann", Text: "Edited", CommunicationID: comm}))

	require.Equal(t, protocol.ReactionResponse{CommunicationID: comm, Points: 1},
		h.ask(t, w, protocol.Like{Author: "bob", CommunicationID: comm, ItemID: id}))
	require.IsType(t, protocol.OperationFailed{},
		h.ask(t, w, protocol.Like{Author: "bob", CommunicationID: comm, ItemID: id}))
	require.Equal(t, protocol.ReactionResponse{CommunicationID: comm, Points: -1},
		h.ask(t, w, protocol.Dislike{Author: "bob", CommunicationID: comm, ItemID: id}))
	require.Equal(t, protocol.ReactionResponse{CommunicationID: comm, Points: 0},
		h.ask(t, w, protocol.RemoveLikeOrDislike{Author: "bob", CommunicationID: comm, ItemID: id, Type: model.LikeKindDislike}))
	require.Equal(t, protocol.ReactionResponse{CommunicationID: comm, Points: 0},
		h.ask(t, w, protocol.Reaction{Author: "bob", CommunicationID: comm, ItemID: id, Emoji: model.EmojiCool}))
	require.IsType(t, protocol.OperationFailed{},
		h.ask(t, w, protocol.Reaction{Author: "bob", CommunicationID: comm, ItemID: id, Emoji: model.EmojiCool}))

	found, ok := h.ask(t, w, protocol.RetrieveMessages{Author: "ann", CommunicationID: comm}).(protocol.FoundMessages)
	require.True(t, ok)
	require.Len(t, found.Items, 1)
	require.Equal(t, "Edited", found.Items[0].Text)

	found, ok = h.ask(t, w, protocol.SearchMessages{Query: "Edit", CommunicationID: comm}).(protocol.FoundMessages)
	require.True(t, ok)
	require.Len(t, found.Items, 1)

	require.IsType(t, protocol.OperationFailed{},
		h.ask(t, w, protocol.Delete{ItemID: id, Author: "bob", CommunicationID: comm}))
	require.Equal(t, protocol.OperationAck{CommunicationID: comm},
		h.ask(t, w, protocol.Delete{ItemID: id, Author: "ann", CommunicationID: comm}))
	require.IsType(t, protocol.OperationFailed{},
		h.ask(t, w, protocol.Like{Author: "bob", CommunicationID: comm, ItemID: id}))
}

func TestWorkerBanPriority(t *testing.T) {
	h := newHarness(t, 1, WithBanThreshold(2))
	w := h.open(t, 10)
	const comm = 10

	require.IsType(t, protocol.OperationAck{}, h.ask(t, w, protocol.Publish{Item: draft("mal", "spam"), CommunicationID: comm}))
	require.Equal(t, protocol.OperationAck{CommunicationID: comm},
		h.ask(t, w, protocol.Report{Reporter: "r1", CommunicationID: comm, Reported: "mal"}))
	require.IsType(t, protocol.OperationFailed{},
		h.ask(t, w, protocol.Report{Reporter: "r1", CommunicationID: comm, Reported: "mal"}))
	require.Equal(t, protocol.UserBanned{CommunicationID: comm, Author: "mal"},
		h.ask(t, w, protocol.Report{Reporter: "r2", CommunicationID: comm, Reported: "mal"}))
	require.Equal(t, protocol.OperationAck{CommunicationID: comm},
		h.ask(t, w, protocol.Report{Reporter: "r3", CommunicationID: comm, Reported: "mal"}))

	banned := protocol.UserBanned{CommunicationID: comm, Author: "mal"}
	for _, msg := range []actor.Message{
		protocol.Publish{Item: draft("mal", "HelloWorld"), CommunicationID: comm},
		// ban wins over the missing item
		protocol.Edit{ItemID: 99, Author: "mal", Text: "x", CommunicationID: comm},
		protocol.Delete{ItemID: 1, Author: "mal", CommunicationID: comm},
		protocol.Like{Author: "mal", CommunicationID: comm, ItemID: 99},
		protocol.Dislike{Author: "mal", CommunicationID: comm, ItemID: 1},
		protocol.RemoveLikeOrDislike{Author: "mal", CommunicationID: comm, ItemID: 1, Type: model.LikeKindLike},
		protocol.Reaction{Author: "mal", CommunicationID: comm, ItemID: 1, Emoji: model.EmojiHorror},
		protocol.RetrieveMessages{Author: "mal", CommunicationID: comm},
		protocol.SearchMessages{Author: "mal", Query: "spam", CommunicationID: comm},
		protocol.Report{Reporter: "mal", CommunicationID: comm, Reported: "r1"},
	} {
		require.Equal(t, banned, h.ask(t, w, msg), actor.KindOf(msg))
	}

	// anonymous search is not a banned request
	found, ok := h.ask(t, w, protocol.SearchMessages{Query: "spam", CommunicationID: comm}).(protocol.FoundMessages)
	require.True(t, ok)
	require.Len(t, found.Items, 1)
}

func TestWorkerStop(t *testing.T) {
	h := newHarness(t, 1)
	w := h.open(t, 10)
	worker := h.disp.Workers()[0]

	// stop and delete land on the same tick; the delete is dropped
	require.NoError(t, w.Tell(protocol.Stop{Sender: h.client}))
	require.NoError(t, w.Tell(protocol.Delete{ItemID: 1, Author: "ann", CommunicationID: 10}))

	reply := h.await(t)
	require.IsType(t, protocol.StopAck{}, reply)
	require.Equal(t, worker, reply.(protocol.StopAck).Sender)
	require.True(t, worker.Stopped())
	require.Zero(t, worker.Sessions())
	require.NotContains(t, h.sys.Actors(), actor.Actor(worker))

	require.NoError(t, h.sys.RunFor(5))
	require.Zero(t, h.client.Len())

	err := w.Tell(protocol.Like{Author: "ann", CommunicationID: 10, ItemID: 1})
	require.True(t, errors.ErrUnknownClient.Equal(err))
}
