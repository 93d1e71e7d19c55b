package board

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/daviddao/tickboard/pkg/actor"
	"github.com/daviddao/tickboard/pkg/errors"
	"github.com/daviddao/tickboard/pkg/model"
	"github.com/daviddao/tickboard/pkg/protocol"
)

func TestDispatcherSpawnsPool(t *testing.T) {
	h := newHarness(t, 3)

	workers := h.disp.Workers()
	require.Len(t, workers, 3)
	require.Equal(t, actor.ID(0), h.disp.ID())
	for i, w := range workers {
		require.Equal(t, actor.ID(i+1), w.ID())
		require.Equal(t, h.disp.SpawnTime(), w.SpawnTime())
	}
	require.Equal(t, "worker-2", workers[2].Name())
	require.Len(t, h.sys.Actors(), 5)
}

func TestDispatcherRoundRobin(t *testing.T) {
	h := newHarness(t, 3)
	workers := h.disp.Workers()

	for i := int64(0); i < 4; i++ {
		w := h.open(t, i)
		require.Equal(t, actor.Actor(workers[i%3]), w)
	}
	require.Equal(t, 2, workers[0].Sessions())
	require.Len(t, h.disp.Log(), 4)
	require.Len(t, h.disp.MessageLog(), 4)
}

func TestDispatcherTolerantOfUnknownMessages(t *testing.T) {
	h := newHarness(t, 1)
	require.NoError(t, h.disp.Tell(protocol.Like{Author: "ann", CommunicationID: 1, ItemID: 1}))
	require.NoError(t, h.sys.RunFor(3))
	require.Len(t, h.disp.Log(), 1)
	require.Zero(t, h.client.Len())
}

func TestDispatcherRejectsInitWithoutClient(t *testing.T) {
	h := newHarness(t, 1)
	err := h.disp.Tell(protocol.InitCommunication{CommunicationID: 1})
	require.Error(t, err)
	require.True(t, errors.ErrUnknownClient.Equal(err))

	require.NoError(t, h.sys.RunFor(3))
	require.Empty(t, h.disp.Log())
	require.Zero(t, h.disp.Workers()[0].Sessions())
}

func TestDispatcherStop(t *testing.T) {
	h := newHarness(t, 2)
	h.open(t, 1)
	h.open(t, 2)

	require.NoError(t, h.disp.Tell(protocol.Stop{}))
	require.NoError(t, h.sys.RunFor(8))

	require.True(t, h.disp.Stopping())
	require.True(t, h.disp.Stopped())
	for _, w := range h.disp.Workers() {
		require.True(t, w.Stopped())
		require.Zero(t, w.Sessions())
	}
	require.Equal(t, []actor.Actor{h.disp, h.client}, h.sys.Actors())

	// inits after the stop are refused by the dispatcher itself
	require.NoError(t, h.disp.Tell(protocol.InitCommunication{Client: h.client, CommunicationID: 3}))
	reply := h.await(t)
	require.IsType(t, protocol.OperationFailed{}, reply)
	require.Equal(t, int64(3), reply.(protocol.OperationFailed).CommunicationID)

	kinds := make([]string, 0)
	for _, m := range h.disp.Log() {
		kinds = append(kinds, actor.KindOf(m))
	}
	require.Equal(t, []string{
		protocol.KindInitCommunication, protocol.KindInitCommunication,
		protocol.KindStop, protocol.KindStopAck, protocol.KindStopAck,
		protocol.KindInitCommunication,
	}, kinds)
}

func TestWorkersOwnTheirStores(t *testing.T) {
	h := newHarness(t, 2)
	a := h.open(t, 1)
	b := h.open(t, 2)
	require.NotEqual(t, a, b)

	workers := h.disp.Workers()
	require.NotSame(t, workers[0].Store(), workers[1].Store())

	require.Equal(t, protocol.OperationAck{CommunicationID: 1, ItemID: 1},
		h.ask(t, a, protocol.Publish{Item: draft("ann", "HelloWorld"), CommunicationID: 1}))

	found, ok := h.ask(t, b, protocol.RetrieveMessages{Author: "ann", CommunicationID: 2}).(protocol.FoundMessages)
	require.True(t, ok)
	require.Empty(t, found.Items)

	// the same text is not a duplicate on another worker
	require.Equal(t, protocol.OperationAck{CommunicationID: 2, ItemID: 1},
		h.ask(t, b, protocol.Publish{Item: draft("ann", "HelloWorld"), CommunicationID: 2}))
	require.Equal(t, 1, workers[0].Store().Len())
	require.Equal(t, 1, workers[1].Store().Len())
	require.Equal(t, 2, h.disp.Items())
}

// TestEndToEnd follows one client through a full conversation.
func TestEndToEnd(t *testing.T) {
	h := newHarness(t, 1)
	const comm = 10
	w := h.open(t, comm)

	ack, ok := h.ask(t, w, protocol.Publish{Item: draft("Saimir", "HelloWorld"), CommunicationID: comm}).(protocol.OperationAck)
	require.True(t, ok)
	id := ack.ItemID

	require.IsType(t, protocol.OperationFailed{},
		h.ask(t, w, protocol.Publish{Item: model.Item{ID: id, Author: "Saimir", Text: "HelloWorld"}, CommunicationID: comm}))
	require.Equal(t, protocol.ReactionResponse{CommunicationID: comm, Points: 1},
		h.ask(t, w, protocol.Like{Author: "Saimir", CommunicationID: comm, ItemID: id}))
	require.IsType(t, protocol.OperationFailed{},
		h.ask(t, w, protocol.Like{Author: "Saimir", CommunicationID: comm, ItemID: id}))
	require.Equal(t, protocol.ReactionResponse{CommunicationID: comm, Points: -1},
		h.ask(t, w, protocol.Dislike{Author: "Saimir", CommunicationID: comm, ItemID: id}))

	for i := 0; i < DefaultBanThreshold; i++ {
		reporter := string(rune('a' + i))
		reply := h.ask(t, w, protocol.Report{Reporter: reporter, CommunicationID: comm, Reported: "Saimir"})
		if i < DefaultBanThreshold-1 {
			require.IsType(t, protocol.OperationAck{}, reply)
		} else {
			require.Equal(t, protocol.UserBanned{CommunicationID: comm, Author: "Saimir"}, reply)
		}
	}
	require.Equal(t, protocol.UserBanned{CommunicationID: comm, Author: "Saimir"},
		h.ask(t, w, protocol.Publish{Item: draft("Saimir", "Again"), CommunicationID: comm}))

	require.Equal(t, protocol.FinishAck{CommunicationID: comm},
		h.ask(t, w, protocol.FinishCommunication{CommunicationID: comm}))
}

func TestBoardMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	InitMetrics(registry)

	opened := testutil.ToFloat64(sessionCounter.WithLabelValues("opened"))
	failed := testutil.ToFloat64(operationCounter.WithLabelValues(protocol.KindPublish, "failed"))
	bans := testutil.ToFloat64(banCounter)

	h := newHarness(t, 1, WithBanThreshold(1))
	w := h.open(t, 1)
	h.ask(t, w, protocol.Publish{Item: draft("ann", "too long text"), CommunicationID: 1})
	h.ask(t, w, protocol.Report{Reporter: "bob", CommunicationID: 1, Reported: "ann"})

	require.Equal(t, opened+1, testutil.ToFloat64(sessionCounter.WithLabelValues("opened")))
	require.Equal(t, failed+1, testutil.ToFloat64(operationCounter.WithLabelValues(protocol.KindPublish, "failed")))
	require.Equal(t, bans+1, testutil.ToFloat64(banCounter))
}
