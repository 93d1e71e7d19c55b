// Package protocol defines the closed catalog of messages exchanged between
// clients, the dispatcher and workers.
//
// Every message is an immutable value with a fixed delivery duration. The
// set is sealed: only types declared here satisfy Message, so a type switch
// over Message is exhaustive.
//
// Conversation shape:
//
//	client -> dispatcher : InitCommunication
//	worker -> client     : InitAck (carries the worker to talk to)
//	client -> worker     : Publish | Edit | Delete | Like | Dislike |
//	                       RemoveLikeOrDislike | Reaction | Report |
//	                       RetrieveMessages | SearchMessages
//	worker -> client     : OperationAck | OperationFailed | ReactionResponse |
//	                       FoundMessages | UserBanned
//	client -> worker     : FinishCommunication
//	worker -> client     : FinishAck
//	dispatcher -> worker : Stop
//	worker -> dispatcher : StopAck
package protocol

import (
	"github.com/daviddao/tickboard/pkg/actor"
	"github.com/daviddao/tickboard/pkg/model"
)

// Message kinds.
const (
	KindInitCommunication   = "init-communication"
	KindInitAck             = "init-ack"
	KindFinishCommunication = "finish-communication"
	KindFinishAck           = "finish-ack"
	KindPublish             = "publish"
	KindEdit                = "edit"
	KindDelete              = "delete"
	KindLike                = "like"
	KindDislike             = "dislike"
	KindRemoveLikeOrDislike = "remove-like-or-dislike"
	KindReaction            = "reaction"
	KindRetrieveMessages    = "retrieve-messages"
	KindSearchMessages      = "search-messages"
	KindReport              = "report"
	KindOperationAck        = "operation-ack"
	KindOperationFailed     = "operation-failed"
	KindReactionResponse    = "reaction-response"
	KindFoundMessages       = "found-messages"
	KindUserBanned          = "user-banned"
	KindStop                = "stop"
	KindStopAck             = "stop-ack"
)

// Message is any protocol message.
type Message interface {
	actor.Message
	Kind() string
	protocol()
}

// SessionRequest is a client request that must travel over a bound
// communication session.
type SessionRequest interface {
	Message
	Communication() int64
	request()
}

// Reply is a message a worker sends back to a client.
type Reply interface {
	Message
	Communication() int64
	reply()
}

// ---------------------------------------------------------------------------
// Session lifecycle
// ---------------------------------------------------------------------------

// InitCommunication asks for a session. Sent to the dispatcher, which
// forwards it to a worker.
type InitCommunication struct {
	Client          actor.Actor `json:"-"`
	CommunicationID int64       `json:"communication_id"`
}

// InitAck confirms a session and names the worker serving it.
type InitAck struct {
	Worker          actor.Actor `json:"-"`
	CommunicationID int64       `json:"communication_id"`
}

// FinishCommunication closes a session.
type FinishCommunication struct {
	CommunicationID int64 `json:"communication_id"`
}

// FinishAck confirms a closed session.
type FinishAck struct {
	CommunicationID int64 `json:"communication_id"`
}

// ---------------------------------------------------------------------------
// Requests
// ---------------------------------------------------------------------------

// Publish submits a new item. The item id is assigned by the store; any id
// carried by the draft is ignored.
type Publish struct {
	Item            model.Item `json:"item"`
	CommunicationID int64      `json:"communication_id"`
}

// Edit replaces the text of an item.
type Edit struct {
	ItemID          int64  `json:"item_id"`
	Author          string `json:"author"`
	Text            string `json:"text"`
	CommunicationID int64  `json:"communication_id"`
}

// Delete removes an item.
type Delete struct {
	ItemID          int64  `json:"item_id"`
	Author          string `json:"author"`
	CommunicationID int64  `json:"communication_id"`
}

// Like adds the author to an item's likers.
type Like struct {
	Author          string `json:"author"`
	CommunicationID int64  `json:"communication_id"`
	ItemID          int64  `json:"item_id"`
}

// Dislike adds the author to an item's dislikers.
type Dislike struct {
	Author          string `json:"author"`
	CommunicationID int64  `json:"communication_id"`
	ItemID          int64  `json:"item_id"`
}

// RemoveLikeOrDislike withdraws a previous vote.
type RemoveLikeOrDislike struct {
	Author          string         `json:"author"`
	CommunicationID int64          `json:"communication_id"`
	ItemID          int64          `json:"item_id"`
	Type            model.LikeKind `json:"type"`
}

// Reaction attaches an emoji to an item.
type Reaction struct {
	Author          string      `json:"author"`
	CommunicationID int64       `json:"communication_id"`
	ItemID          int64       `json:"item_id"`
	Emoji           model.Emoji `json:"emoji"`
}

// RetrieveMessages lists every item of one author.
type RetrieveMessages struct {
	Author          string `json:"author"`
	CommunicationID int64  `json:"communication_id"`
}

// SearchMessages lists items whose text or author contains Query. Author is
// the requester and may be empty for anonymous searches.
type SearchMessages struct {
	Author          string `json:"author,omitempty"`
	Query           string `json:"query"`
	CommunicationID int64  `json:"communication_id"`
}

// Report flags another author.
type Report struct {
	Reporter        string `json:"reporter"`
	CommunicationID int64  `json:"communication_id"`
	Reported        string `json:"reported"`
}

// ---------------------------------------------------------------------------
// Replies
// ---------------------------------------------------------------------------

// OperationAck reports success. ItemID is set for publish.
type OperationAck struct {
	CommunicationID int64 `json:"communication_id"`
	ItemID          int64 `json:"item_id,omitempty"`
}

// OperationFailed reports a rejected request.
type OperationFailed struct {
	CommunicationID int64  `json:"communication_id"`
	Reason          string `json:"reason,omitempty"`
}

// ReactionResponse carries an item's net points after a vote or reaction.
type ReactionResponse struct {
	CommunicationID int64 `json:"communication_id"`
	Points          int64 `json:"points"`
}

// FoundMessages carries copies of the matching items in id order.
type FoundMessages struct {
	CommunicationID int64        `json:"communication_id"`
	Items           []model.Item `json:"items"`
}

// UserBanned reports that Author is banned.
type UserBanned struct {
	CommunicationID int64  `json:"communication_id"`
	Author          string `json:"author"`
}

// ---------------------------------------------------------------------------
// Pool control
// ---------------------------------------------------------------------------

// Stop asks a worker to shut down. Sender, when set, receives a StopAck.
type Stop struct {
	Sender actor.Actor `json:"-"`
}

// StopAck confirms a worker has stopped.
type StopAck struct {
	Sender actor.Actor `json:"-"`
}

// ---------------------------------------------------------------------------
// Durations and kinds
// ---------------------------------------------------------------------------

func (InitCommunication) Duration() int64   { return 1 }
func (InitAck) Duration() int64             { return 1 }
func (FinishCommunication) Duration() int64 { return 1 }
func (FinishAck) Duration() int64           { return 1 }
func (Publish) Duration() int64             { return 3 }
func (Edit) Duration() int64                { return 3 }
func (Delete) Duration() int64              { return 2 }
func (Like) Duration() int64                { return 1 }
func (Dislike) Duration() int64             { return 1 }
func (RemoveLikeOrDislike) Duration() int64 { return 1 }
func (Reaction) Duration() int64            { return 1 }
func (RetrieveMessages) Duration() int64    { return 3 }
func (SearchMessages) Duration() int64      { return 3 }
func (Report) Duration() int64              { return 1 }
func (OperationAck) Duration() int64        { return 1 }
func (OperationFailed) Duration() int64     { return 1 }
func (ReactionResponse) Duration() int64    { return 1 }
func (FoundMessages) Duration() int64       { return 1 }
func (UserBanned) Duration() int64          { return 1 }
func (Stop) Duration() int64                { return 2 }
func (StopAck) Duration() int64             { return 2 }

func (InitCommunication) Kind() string   { return KindInitCommunication }
func (InitAck) Kind() string             { return KindInitAck }
func (FinishCommunication) Kind() string { return KindFinishCommunication }
func (FinishAck) Kind() string           { return KindFinishAck }
func (Publish) Kind() string             { return KindPublish }
func (Edit) Kind() string                { return KindEdit }
func (Delete) Kind() string              { return KindDelete }
func (Like) Kind() string                { return KindLike }
func (Dislike) Kind() string             { return KindDislike }
func (RemoveLikeOrDislike) Kind() string { return KindRemoveLikeOrDislike }
func (Reaction) Kind() string            { return KindReaction }
func (RetrieveMessages) Kind() string    { return KindRetrieveMessages }
func (SearchMessages) Kind() string      { return KindSearchMessages }
func (Report) Kind() string              { return KindReport }
func (OperationAck) Kind() string        { return KindOperationAck }
func (OperationFailed) Kind() string     { return KindOperationFailed }
func (ReactionResponse) Kind() string    { return KindReactionResponse }
func (FoundMessages) Kind() string       { return KindFoundMessages }
func (UserBanned) Kind() string          { return KindUserBanned }
func (Stop) Kind() string                { return KindStop }
func (StopAck) Kind() string             { return KindStopAck }

func (InitCommunication) protocol()   {}
func (InitAck) protocol()             {}
func (FinishCommunication) protocol() {}
func (FinishAck) protocol()           {}
func (Publish) protocol()             {}
func (Edit) protocol()                {}
func (Delete) protocol()              {}
func (Like) protocol()                {}
func (Dislike) protocol()             {}
func (RemoveLikeOrDislike) protocol() {}
func (Reaction) protocol()            {}
func (RetrieveMessages) protocol()    {}
func (SearchMessages) protocol()      {}
func (Report) protocol()              {}
func (OperationAck) protocol()        {}
func (OperationFailed) protocol()     {}
func (ReactionResponse) protocol()    {}
func (FoundMessages) protocol()       {}
func (UserBanned) protocol()          {}
func (Stop) protocol()                {}
func (StopAck) protocol()             {}

func (m FinishCommunication) Communication() int64 { return m.CommunicationID }
func (m Publish) Communication() int64             { return m.CommunicationID }
func (m Edit) Communication() int64                { return m.CommunicationID }
func (m Delete) Communication() int64              { return m.CommunicationID }
func (m Like) Communication() int64                { return m.CommunicationID }
func (m Dislike) Communication() int64             { return m.CommunicationID }
func (m RemoveLikeOrDislike) Communication() int64 { return m.CommunicationID }
func (m Reaction) Communication() int64            { return m.CommunicationID }
func (m RetrieveMessages) Communication() int64    { return m.CommunicationID }
func (m SearchMessages) Communication() int64      { return m.CommunicationID }
func (m Report) Communication() int64              { return m.CommunicationID }
func (m OperationAck) Communication() int64        { return m.CommunicationID }
func (m OperationFailed) Communication() int64     { return m.CommunicationID }
func (m ReactionResponse) Communication() int64    { return m.CommunicationID }
func (m FoundMessages) Communication() int64       { return m.CommunicationID }
func (m UserBanned) Communication() int64          { return m.CommunicationID }

func (FinishCommunication) request() {}
func (Publish) request()             {}
func (Edit) request()                {}
func (Delete) request()              {}
func (Like) request()                {}
func (Dislike) request()             {}
func (RemoveLikeOrDislike) request() {}
func (Reaction) request()            {}
func (RetrieveMessages) request()    {}
func (SearchMessages) request()      {}
func (Report) request()              {}

func (OperationAck) reply()     {}
func (OperationFailed) reply()  {}
func (ReactionResponse) reply() {}
func (FoundMessages) reply()    {}
func (UserBanned) reply()       {}

// Requester returns the author a session request acts on behalf of, or ""
// for requests without one.
func Requester(m SessionRequest) string {
	switch m := m.(type) {
	case Publish:
		return m.Item.Author
	case Edit:
		return m.Author
	case Delete:
		return m.Author
	case Like:
		return m.Author
	case Dislike:
		return m.Author
	case RemoveLikeOrDislike:
		return m.Author
	case Reaction:
		return m.Author
	case RetrieveMessages:
		return m.Author
	case SearchMessages:
		return m.Author
	case Report:
		return m.Reporter
	default:
		return ""
	}
}
