package board

import (
	"strings"
	"unicode/utf8"

	"github.com/google/btree"

	"github.com/daviddao/tickboard/pkg/errors"
	"github.com/daviddao/tickboard/pkg/model"
)

const (
	// DefaultMaxTextLength caps item text, in characters.
	DefaultMaxTextLength = 10
	// DefaultBanThreshold is the number of distinct reporters that bans an
	// author.
	DefaultBanThreshold = 5
)

// entry is the store's mutable view of an item.
type entry struct {
	id        int64
	author    string
	text      string
	likes     map[string]struct{}
	dislikes  map[string]struct{}
	reactions map[string]model.Emoji
	revision  int
}

func entryLess(a, b *entry) bool { return a.id < b.id }

func (e *entry) snapshot() model.Item {
	it := model.Item{
		ID:       e.id,
		Author:   e.author,
		Text:     e.text,
		Likes:    model.SortedKeys(e.likes),
		Dislikes: model.SortedKeys(e.dislikes),
		Revision: e.revision,
	}
	if len(e.reactions) > 0 {
		it.Reactions = make(map[string]model.Emoji, len(e.reactions))
		for k, v := range e.reactions {
			it.Reactions[k] = v
		}
	}
	return it
}

func (e *entry) points() int64 {
	return int64(len(e.likes) - len(e.dislikes))
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithMaxTextLength overrides DefaultMaxTextLength.
func WithMaxTextLength(n int) StoreOption {
	return func(s *Store) { s.maxTextLength = n }
}

// WithBanThreshold overrides DefaultBanThreshold.
func WithBanThreshold(n int) StoreOption {
	return func(s *Store) { s.banThreshold = n }
}

// Store holds every board item plus report and ban state. Items are indexed
// by id in a B-tree; ids start at 1 and are never reused. Every method
// validates its input and reports rejections as STORE errors. Not
// goroutine-safe.
type Store struct {
	items         *btree.BTreeG[*entry]
	nextID        int64
	maxTextLength int
	banThreshold  int
	// reported author -> distinct reporters
	reports map[string]map[string]struct{}
	banned  map[string]struct{}
}

// NewStore returns an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		items:         btree.NewG(16, entryLess),
		maxTextLength: DefaultMaxTextLength,
		banThreshold:  DefaultBanThreshold,
		reports:       make(map[string]map[string]struct{}),
		banned:        make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Len returns the number of stored items.
func (s *Store) Len() int { return s.items.Len() }

// Get returns a copy of item id.
func (s *Store) Get(id int64) (model.Item, bool) {
	e, ok := s.items.Get(&entry{id: id})
	if !ok {
		return model.Item{}, false
	}
	return e.snapshot(), true
}

// IsBanned reports whether author has been banned.
func (s *Store) IsBanned(author string) bool {
	_, ok := s.banned[author]
	return ok
}

// ReportCount returns the number of distinct reporters of author.
func (s *Store) ReportCount(author string) int {
	return len(s.reports[author])
}

func (s *Store) checkBanned(author string) error {
	if s.IsBanned(author) {
		return errors.ErrUserBanned.FastGenByArgs(author)
	}
	return nil
}

func (s *Store) checkText(text string) error {
	if n := utf8.RuneCountInString(text); n > s.maxTextLength {
		return errors.ErrTextTooLong.FastGenByArgs(n, s.maxTextLength)
	}
	return nil
}

func (s *Store) lookup(id int64) (*entry, error) {
	e, ok := s.items.Get(&entry{id: id})
	if !ok {
		return nil, errors.ErrItemNotFound.FastGenByArgs(id)
	}
	return e, nil
}

// Publish stores draft as a new item and returns its id. The draft's own id
// is ignored. The author must not be banned, the text must fit, the draft
// must carry no votes or reactions, and the author must not already have an
// item with the same text.
func (s *Store) Publish(draft model.Item) (int64, error) {
	if draft.Author == "" {
		return 0, errors.ErrEmptyAuthor.FastGenByArgs()
	}
	if err := s.checkBanned(draft.Author); err != nil {
		return 0, err
	}
	if err := s.checkText(draft.Text); err != nil {
		return 0, err
	}
	if !draft.Pristine() {
		return 0, errors.ErrItemNotPristine.FastGenByArgs()
	}
	duplicate := false
	s.items.Ascend(func(e *entry) bool {
		if e.author == draft.Author && e.text == draft.Text {
			duplicate = true
			return false
		}
		return true
	})
	if duplicate {
		return 0, errors.ErrDuplicateItem.FastGenByArgs(draft.Author)
	}

	s.nextID++
	s.items.ReplaceOrInsert(&entry{
		id:        s.nextID,
		author:    draft.Author,
		text:      draft.Text,
		likes:     make(map[string]struct{}),
		dislikes:  make(map[string]struct{}),
		reactions: make(map[string]model.Emoji),
	})
	return s.nextID, nil
}

// Edit replaces the text of item id. Only the author may edit, and the new
// text must differ from the current one.
func (s *Store) Edit(id int64, author, text string) error {
	if err := s.checkBanned(author); err != nil {
		return err
	}
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	if e.author != author {
		return errors.ErrNotAuthor.FastGenByArgs(author, id)
	}
	if e.text == text {
		return errors.ErrTextUnchanged.FastGenByArgs(id)
	}
	if err := s.checkText(text); err != nil {
		return err
	}
	e.text = text
	e.revision++
	return nil
}

// Delete removes item id. Only the author may delete.
func (s *Store) Delete(id int64, author string) error {
	if err := s.checkBanned(author); err != nil {
		return err
	}
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	if e.author != author {
		return errors.ErrNotAuthor.FastGenByArgs(author, id)
	}
	s.items.Delete(e)
	return nil
}

// Like adds author to the likers of item id, withdrawing a dislike if there
// was one, and returns the item's net points.
func (s *Store) Like(id int64, author string) (int64, error) {
	if err := s.checkBanned(author); err != nil {
		return 0, err
	}
	e, err := s.lookup(id)
	if err != nil {
		return 0, err
	}
	if _, ok := e.likes[author]; ok {
		return 0, errors.ErrAlreadyLiked.FastGenByArgs(author, id)
	}
	delete(e.dislikes, author)
	e.likes[author] = struct{}{}
	return e.points(), nil
}

// Dislike is the mirror image of Like.
func (s *Store) Dislike(id int64, author string) (int64, error) {
	if err := s.checkBanned(author); err != nil {
		return 0, err
	}
	e, err := s.lookup(id)
	if err != nil {
		return 0, err
	}
	if _, ok := e.dislikes[author]; ok {
		return 0, errors.ErrAlreadyDisliked.FastGenByArgs(author, id)
	}
	delete(e.likes, author)
	e.dislikes[author] = struct{}{}
	return e.points(), nil
}

// RemoveLikeOrDislike withdraws author's vote of the given kind.
func (s *Store) RemoveLikeOrDislike(id int64, author string, kind model.LikeKind) (int64, error) {
	if !kind.Valid() {
		return 0, errors.ErrUnknownRemoveKind.GenWithStackByArgs()
	}
	if err := s.checkBanned(author); err != nil {
		return 0, err
	}
	e, err := s.lookup(id)
	if err != nil {
		return 0, err
	}
	set := e.likes
	if kind == model.LikeKindDislike {
		set = e.dislikes
	}
	if _, ok := set[author]; !ok {
		return 0, errors.ErrNoVote.FastGenByArgs(author, string(kind), id)
	}
	delete(set, author)
	return e.points(), nil
}

// React sets author's emoji on item id, replacing a different previous one.
func (s *Store) React(id int64, author string, emoji model.Emoji) (int64, error) {
	if !emoji.Valid() {
		return 0, errors.ErrUnknownEmoji.GenWithStackByArgs(string(emoji))
	}
	if err := s.checkBanned(author); err != nil {
		return 0, err
	}
	e, err := s.lookup(id)
	if err != nil {
		return 0, err
	}
	if prev, ok := e.reactions[author]; ok && prev == emoji {
		return 0, errors.ErrSameReaction.FastGenByArgs(author, string(emoji), id)
	}
	e.reactions[author] = emoji
	return e.points(), nil
}

// Report records that reporter flagged reported. It returns true when this
// report makes reported reach the ban threshold. Reporting someone who is
// already banned is accepted and returns false.
func (s *Store) Report(reporter, reported string) (bool, error) {
	if err := s.checkBanned(reporter); err != nil {
		return false, err
	}
	reporters, ok := s.reports[reported]
	if !ok {
		reporters = make(map[string]struct{})
		s.reports[reported] = reporters
	}
	if _, dup := reporters[reporter]; dup {
		return false, errors.ErrAlreadyReported.FastGenByArgs(reporter, reported)
	}
	reporters[reporter] = struct{}{}
	if s.IsBanned(reported) || len(reporters) < s.banThreshold {
		return false, nil
	}
	s.banned[reported] = struct{}{}
	return true, nil
}

// Retrieve returns copies of every item by author, in id order.
func (s *Store) Retrieve(author string) ([]model.Item, error) {
	if err := s.checkBanned(author); err != nil {
		return nil, err
	}
	var out []model.Item
	s.items.Ascend(func(e *entry) bool {
		if e.author == author {
			out = append(out, e.snapshot())
		}
		return true
	})
	return out, nil
}

// Search returns copies of every item whose text or author contains query,
// in id order. Matching is case-sensitive. An empty requester searches
// anonymously.
func (s *Store) Search(requester, query string) ([]model.Item, error) {
	if requester != "" {
		if err := s.checkBanned(requester); err != nil {
			return nil, err
		}
	}
	var out []model.Item
	s.items.Ascend(func(e *entry) bool {
		if strings.Contains(e.text, query) || strings.Contains(e.author, query) {
			out = append(out, e.snapshot())
		}
		return true
	})
	return out, nil
}
