// Package errors holds the RFC-coded errors of tickboard.
//
// Two classes exist and must never be mixed up:
//
//   - BOARD errors are structural faults (unknown session, unknown message
//     type, malformed request, kernel misuse). They are returned
//     synchronously from Tell, Receive or Tick and abort the call.
//   - STORE errors are business rejections raised by the message store.
//     Workers turn them into OperationFailed or UserBanned replies; they
//     never escape a tick.
package errors

import (
	"github.com/pingcap/errors"
)

// structural errors
var (
	ErrUnknownClient = errors.Normalize(
		"Unknown communication ID",
		errors.RFCCodeText("BOARD:ErrUnknownClient"),
	)
	ErrUnknownMessage = errors.Normalize(
		"Worker received message of not existing type.",
		errors.RFCCodeText("BOARD:ErrUnknownMessage"),
	)
	ErrUnknownRemoveKind = errors.Normalize(
		"Unknown delete type.",
		errors.RFCCodeText("BOARD:ErrUnknownRemoveKind"),
	)
	ErrUnknownEmoji = errors.Normalize(
		"unknown reaction %q",
		errors.RFCCodeText("BOARD:ErrUnknownEmoji"),
	)
	ErrNilMessage = errors.Normalize(
		"cannot send a nil message",
		errors.RFCCodeText("BOARD:ErrNilMessage"),
	)
	ErrInvalidDuration = errors.Normalize(
		"message %s has non-positive duration %d",
		errors.RFCCodeText("BOARD:ErrInvalidDuration"),
	)
	ErrActorNotSpawned = errors.Normalize(
		"actor has not been spawned",
		errors.RFCCodeText("BOARD:ErrActorNotSpawned"),
	)
	ErrNoReply = errors.Normalize(
		"no reply within %d ticks",
		errors.RFCCodeText("BOARD:ErrNoReply"),
	)
	ErrInvalidConfig = errors.Normalize(
		"invalid config: %s",
		errors.RFCCodeText("BOARD:ErrInvalidConfig"),
	)
	ErrConfigUnknownItem = errors.Normalize(
		"unknown config item: %s",
		errors.RFCCodeText("BOARD:ErrConfigUnknownItem"),
	)
	ErrInvalidScenario = errors.Normalize(
		"invalid scenario: %s",
		errors.RFCCodeText("BOARD:ErrInvalidScenario"),
	)
	ErrScenarioMismatch = errors.Normalize(
		"step %d (%s): got %s, want %s %s",
		errors.RFCCodeText("BOARD:ErrScenarioMismatch"),
	)
	ErrJournalOpen = errors.Normalize(
		"open journal %s",
		errors.RFCCodeText("BOARD:ErrJournalOpen"),
	)
	ErrJournalWrite = errors.Normalize(
		"journal write failed",
		errors.RFCCodeText("BOARD:ErrJournalWrite"),
	)
	ErrJournalRead = errors.Normalize(
		"journal read failed",
		errors.RFCCodeText("BOARD:ErrJournalRead"),
	)
	ErrJournalNoRun = errors.Normalize(
		"journal has no active run",
		errors.RFCCodeText("BOARD:ErrJournalNoRun"),
	)
)

// business rejections
var (
	ErrUserBanned = errors.Normalize(
		"user %s is banned",
		errors.RFCCodeText("STORE:ErrUserBanned"),
	)
	ErrItemNotFound = errors.Normalize(
		"item %d does not exist",
		errors.RFCCodeText("STORE:ErrItemNotFound"),
	)
	ErrNotAuthor = errors.Normalize(
		"%s is not the author of item %d",
		errors.RFCCodeText("STORE:ErrNotAuthor"),
	)
	ErrEmptyAuthor = errors.Normalize(
		"item has no author",
		errors.RFCCodeText("STORE:ErrEmptyAuthor"),
	)
	ErrTextTooLong = errors.Normalize(
		"text has %d characters, limit is %d",
		errors.RFCCodeText("STORE:ErrTextTooLong"),
	)
	ErrTextUnchanged = errors.Normalize(
		"item %d already has this text",
		errors.RFCCodeText("STORE:ErrTextUnchanged"),
	)
	ErrDuplicateItem = errors.Normalize(
		"%s already published this text",
		errors.RFCCodeText("STORE:ErrDuplicateItem"),
	)
	ErrItemNotPristine = errors.Normalize(
		"a new item cannot carry votes or reactions",
		errors.RFCCodeText("STORE:ErrItemNotPristine"),
	)
	ErrAlreadyLiked = errors.Normalize(
		"%s already likes item %d",
		errors.RFCCodeText("STORE:ErrAlreadyLiked"),
	)
	ErrAlreadyDisliked = errors.Normalize(
		"%s already dislikes item %d",
		errors.RFCCodeText("STORE:ErrAlreadyDisliked"),
	)
	ErrNoVote = errors.Normalize(
		"%s has no %s on item %d",
		errors.RFCCodeText("STORE:ErrNoVote"),
	)
	ErrSameReaction = errors.Normalize(
		"%s already reacted with %s on item %d",
		errors.RFCCodeText("STORE:ErrSameReaction"),
	)
	ErrAlreadyReported = errors.Normalize(
		"%s already reported %s",
		errors.RFCCodeText("STORE:ErrAlreadyReported"),
	)
)

// WrapError wraps err into rfcError, keeping err as the cause. A nil err
// yields nil.
func WrapError(rfcError *errors.Error, err error, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return rfcError.Wrap(err).GenWithStackByCause(args...)
}

var rejections = []*errors.Error{
	ErrUserBanned, ErrItemNotFound, ErrNotAuthor, ErrEmptyAuthor,
	ErrTextTooLong, ErrTextUnchanged, ErrDuplicateItem, ErrItemNotPristine,
	ErrAlreadyLiked, ErrAlreadyDisliked, ErrNoVote, ErrSameReaction,
	ErrAlreadyReported,
}

// IsRejection reports whether err is a business rejection rather than a
// structural fault.
func IsRejection(err error) bool {
	if err == nil {
		return false
	}
	for _, r := range rejections {
		if r.Equal(err) {
			return true
		}
	}
	return false
}
