package chat

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/lukose-dev/pawstream/internal/models"
	"go.uber.org/zap"
)

// DefaultPageSize is the window's page size for initial loads, refreshes,
// and backward pagination.
const DefaultPageSize = 50

// MessageReader is the slice of the gateway the window needs.
type MessageReader interface {
	ListMessages(ctx context.Context, conversationID uuid.UUID, offset, limit int) ([]models.Message, error)
}

// Window holds the ordered message list for the one currently active
// conversation. It is not a cache across conversations: Activate tears the
// previous state down, so lists never leak between conversations.
//
// All mutation funnels through Load and Reset — no other component may
// splice messages in — so the merge invariant applies uniformly no matter
// which path (send fallback, push event, manual pagination) asked for the
// load.
type Window struct {
	store  MessageReader
	logger *zap.Logger

	mu       sync.Mutex
	active   uuid.UUID // uuid.Nil when no conversation is open
	epoch    uint64    // bumped on every Activate/Reset; stale loads compare against it
	messages []models.Message
	ids      map[int64]struct{}
	version  uint64
}

func NewWindow(store MessageReader, logger *zap.Logger) *Window {
	return &Window{
		store:  store,
		logger: logger,
		ids:    make(map[int64]struct{}),
	}
}

// Activate makes conversationID the active conversation, clearing any
// previous state. Loads in flight for the previous conversation will find
// the epoch changed when they land and discard their result.
func (w *Window) Activate(conversationID uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clearLocked()
	w.active = conversationID
}

// Reset clears all state. Called when the user navigates away.
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clearLocked()
}

func (w *Window) clearLocked() {
	w.active = uuid.Nil
	w.epoch++
	w.messages = nil
	w.ids = make(map[int64]struct{})
	w.version++
}

// ActiveConversation returns the active conversation id, uuid.Nil if none.
func (w *Window) ActiveConversation() uuid.UUID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

// Messages is a read-only view of the window, oldest first. The returned
// slice is stable: a redundant Load leaves it (identity and length)
// completely untouched, and a real merge swaps in a freshly built slice, so
// what a caller is holding never changes under it. Callers must not mutate
// it either.
func (w *Window) Messages() []models.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.messages
}

// Version advances only when the window's content actually changes. A
// renderer can diff it instead of re-rendering on every redundant refresh.
func (w *Window) Version() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.version
}

// Load fetches one page for conversationID and merges it in. offset 0 is
// the latest page (used by refreshes); offset > 0 walks backward through
// history. Both paths merge identically, keyed on message id:
//
//   - ids already present are dropped, so overlapping pages and racing
//     offset-0/paginated loads can never duplicate a message;
//   - if the page contributes nothing, the in-memory list is left untouched
//     — same slice, same version. That is a correctness requirement, not an
//     optimization: replacing the list with an equivalent one on every
//     redundant refresh causes render thrashing that masks real bugs;
//   - new ids are merged and the whole list re-sorted by createdAt (id as
//     tiebreak), so arrival order never dictates render order.
//
// Staleness is judged at response time, not request time: the fetch runs
// without the lock, and the result is discarded if the window was reset or
// re-activated while it was in flight.
func (w *Window) Load(ctx context.Context, conversationID uuid.UUID, offset, limit int) error {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	w.mu.Lock()
	if w.active != conversationID {
		// Not the active conversation — nothing to load into.
		w.mu.Unlock()
		return nil
	}
	epoch := w.epoch
	w.mu.Unlock()

	page, err := w.store.ListMessages(ctx, conversationID, offset, limit)
	if err != nil {
		// Last-known-good state stays; the caller may retry or ignore.
		return fmt.Errorf("%w: list messages: %v", ErrReadFailed, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.active != conversationID || w.epoch != epoch {
		// The user navigated away (or switched and came back) while the
		// fetch was in flight. This response belongs to a dead view.
		w.logger.Debug("discarding stale window load",
			zap.String("conversation_id", conversationID.String()),
		)
		return nil
	}

	updates := make(map[int64]models.Message)
	removals := make(map[int64]struct{})
	fresh := make([]models.Message, 0, len(page))
	for _, msg := range page {
		_, seen := w.ids[msg.ID]
		switch {
		case msg.IsDeleted && seen:
			removals[msg.ID] = struct{}{}
		case msg.IsDeleted:
			// Never held it, nothing to hide.
		case seen:
			if w.heldDiffersLocked(msg) {
				updates[msg.ID] = msg
			}
		default:
			fresh = append(fresh, msg)
		}
	}
	if len(fresh) == 0 && len(updates) == 0 && len(removals) == 0 {
		return nil
	}

	// Copy-on-write: callers of Messages hold the previous slice, so the
	// merge builds a new one instead of editing or re-sorting the old
	// backing array under them.
	merged := make([]models.Message, 0, len(w.messages)+len(fresh))
	for _, held := range w.messages {
		if _, gone := removals[held.ID]; gone {
			continue
		}
		if updated, ok := updates[held.ID]; ok {
			held = updated
		}
		merged = append(merged, held)
	}
	merged = append(merged, fresh...)
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].CreatedAt.Equal(merged[j].CreatedAt) {
			return merged[i].ID < merged[j].ID
		}
		return merged[i].CreatedAt.Before(merged[j].CreatedAt)
	})

	w.messages = merged
	for id := range removals {
		delete(w.ids, id)
	}
	for _, msg := range fresh {
		w.ids[msg.ID] = struct{}{}
	}
	w.version++
	return nil
}

// heldDiffersLocked reports whether the held copy of msg's row differs from
// the page's, so a page that merely repeats current state doesn't rebuild
// the list or bump the version.
func (w *Window) heldDiffersLocked(msg models.Message) bool {
	for _, held := range w.messages {
		if held.ID != msg.ID {
			continue
		}
		return held.Content != msg.Content ||
			held.IsEdited != msg.IsEdited ||
			!held.UpdatedAt.Equal(msg.UpdatedAt)
	}
	return false
}
