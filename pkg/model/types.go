// Package model defines the plain data types shared by tickboard packages.
//
// Tickboard simulates a message board served by a pool of actors:
//
//   - Board items: text posts with an author, a set of likers, a set of
//     dislikers and at most one emoji reaction per author. Items are owned by
//     the board store; everything handed out is a copy.
//
//   - Pointstamps: (tick, actor) pairs naming the earliest delivery still
//     pending in an actor's mailbox. The frontier package uses them to decide
//     when a simulation has gone quiet.
//
//   - Journal records: runs, actors and kernel events as persisted by the
//     journal package.
package model

import (
	"sort"
	"time"
)

// Emoji is a reaction attached to a board item.
type Emoji string

const (
	EmojiSmiling   Emoji = "smiling"
	EmojiLaughing  Emoji = "laughing"
	EmojiCool      Emoji = "cool"
	EmojiFrowning  Emoji = "frowning"
	EmojiHorror    Emoji = "horror"
	EmojiSurprised Emoji = "surprised"
	EmojiSkeptical Emoji = "skeptical"
)

// Emojis lists every known reaction in display order.
var Emojis = []Emoji{
	EmojiSmiling, EmojiLaughing, EmojiCool, EmojiFrowning,
	EmojiHorror, EmojiSurprised, EmojiSkeptical,
}

// Valid reports whether e is one of the known reactions.
func (e Emoji) Valid() bool {
	for _, k := range Emojis {
		if e == k {
			return true
		}
	}
	return false
}

// LikeKind selects which vote a removal request targets. The zero value is
// unset and never valid.
type LikeKind string

const (
	LikeKindLike    LikeKind = "like"
	LikeKindDislike LikeKind = "dislike"
)

// Valid reports whether k names a like or a dislike.
func (k LikeKind) Valid() bool {
	return k == LikeKindLike || k == LikeKindDislike
}

// Item is a board item (a published message). Likes and Dislikes are sorted
// and disjoint; Reactions maps an author to their single emoji.
type Item struct {
	ID        int64            `json:"id"`
	Author    string           `json:"author"`
	Text      string           `json:"text"`
	Likes     []string         `json:"likes,omitempty"`
	Dislikes  []string         `json:"dislikes,omitempty"`
	Reactions map[string]Emoji `json:"reactions,omitempty"`
	// Revision counts successful edits; 0 means the item is as created.
	Revision int `json:"revision"`
}

// Points is the net vote count: likes minus dislikes.
func (it Item) Points() int64 {
	return int64(len(it.Likes) - len(it.Dislikes))
}

// Pristine reports whether the item carries no votes and no reactions.
func (it Item) Pristine() bool {
	return len(it.Likes) == 0 && len(it.Dislikes) == 0 && len(it.Reactions) == 0
}

// SortedKeys returns the keys of a string set in ascending order.
func SortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Pointstamp is a (Tick, ActorID) pair: the earliest pending delivery in
// one actor's mailbox.
type Pointstamp struct {
	Tick    int64 `json:"tick"`
	ActorID int64 `json:"actor_id"`
}

// LessEq reports whether p is due no later than tick.
func (p Pointstamp) LessEq(tick int64) bool { return p.Tick <= tick }

// EventKind enumerates the kernel events recorded in a journal.
type EventKind string

const (
	EventSpawn   EventKind = "spawn"
	EventStop    EventKind = "stop"
	EventSend    EventKind = "send"
	EventDeliver EventKind = "deliver"
)

// Run is one recorded simulation.
type Run struct {
	ID        string    `json:"id"`
	Workers   int       `json:"workers"`
	Config    string    `json:"config,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// ActorRecord is an actor as seen by the journal.
type ActorRecord struct {
	RunID     string `json:"run_id"`
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	SpawnedAt int64  `json:"spawned_at"`
	// StoppedAt is -1 while the actor is live.
	StoppedAt int64 `json:"stopped_at"`
}

// Live reports whether the actor was never stopped during the run.
func (a ActorRecord) Live() bool { return a.StoppedAt < 0 }

// Event is a single entry in a run's append-only event log. ActorID is the
// actor the event happened to: the spawned or stopped actor, or the
// recipient of a sent or delivered message.
type Event struct {
	ID          int64     `json:"id"`
	RunID       string    `json:"run_id"`
	Tick        int64     `json:"tick"`
	Kind        EventKind `json:"kind"`
	ActorID     int64     `json:"actor_id"`
	DeliverAt   int64     `json:"deliver_at,omitempty"`
	MessageKind string    `json:"message_kind,omitempty"`
	Body        string    `json:"body,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
