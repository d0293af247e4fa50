// Package cardnav implements the date×stock card navigation used by the card
// browsing views. The backend exposes snapshots in per-date batches; the
// navigator presents them as one continuous ribbon, crossing date boundaries
// transparently when the user moves past the first or last card of a date.
package cardnav

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/snapfolio/snapfolio-portal/internal/models"
)

// Loader fetches the card list for one date from the backend.
type Loader func(ctx context.Context, date string) ([]models.SnapshotCard, error)

// Direction of an Advance operation.
type Direction int

const (
	Prev Direction = iota
	Next
)

// NoCard is the index value while an empty date is selected. An empty date is
// a real selection — the view renders it as "no cards today", not as the end
// of the ribbon.
const NoCard = -1

var (
	// ErrNoSelection is returned when an operation needs a current date and none is set.
	ErrNoSelection = errors.New("cardnav: no date selected")
	// ErrOutOfRange is returned by SelectIndex for an index outside the current list.
	ErrOutOfRange = errors.New("cardnav: index out of range")
	// ErrUnknownCard is returned by SelectCard when the ID is not in the current list.
	ErrUnknownCard = errors.New("cardnav: card not in current date")
	// ErrSuperseded is returned when a load resolved after the user moved to a
	// different selection. The fetched data is kept, the selection is not
	// touched, and callers should treat this as a silent outcome.
	ErrSuperseded = errors.New("cardnav: selection superseded")
)

// Navigator tracks the ordered set of known dates, the per-date card lists,
// and the current (date, index) selection. All methods are safe for
// concurrent use.
type Navigator struct {
	mu     sync.Mutex
	loader Loader
	group  singleflight.Group

	dates  []string // known/allowed dates, ascending
	cards  map[string][]models.SnapshotCard
	loaded map[string]bool // date fetched successfully (list may be empty)

	current string
	index   int

	// generation is bumped on every selection change; a load commits its
	// selection only if no newer change happened while it was in flight.
	generation uint64

	// One selection-driven load at a time: a load for a different date
	// cancels the previous one, while a load for the same date joins it.
	inflightDate string
	loadCtx      context.Context
	cancelLoad   context.CancelFunc
}

// New creates a Navigator over the given allowed dates (any order, deduplicated).
func New(loader Loader, allowedDates []string) *Navigator {
	n := &Navigator{
		loader: loader,
		cards:  make(map[string][]models.SnapshotCard),
		loaded: make(map[string]bool),
		index:  NoCard,
	}
	for _, d := range allowedDates {
		n.addDateLocked(d)
	}
	return n
}

// AddDate registers a date in the allowed-dates list.
func (n *Navigator) AddDate(date string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.addDateLocked(date)
}

// Dates returns a copy of the known dates in ascending order.
func (n *Navigator) Dates() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.dates))
	copy(out, n.dates)
	return out
}

// Current returns the selected date and index. Index is NoCard while the
// selected date has no cards.
func (n *Navigator) Current() (string, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current, n.index
}

// CurrentCard returns the selected card, if any.
func (n *Navigator) CurrentCard() (models.SnapshotCard, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	list := n.cards[n.current]
	if n.index < 0 || n.index >= len(list) {
		return models.SnapshotCard{}, false
	}
	return list[n.index], true
}

// Cards returns the loaded card list for a date and whether it was loaded.
func (n *Navigator) Cards(date string) ([]models.SnapshotCard, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.loaded[date] {
		return nil, false
	}
	list := make([]models.SnapshotCard, len(n.cards[date]))
	copy(list, n.cards[date])
	return list, true
}

// SelectDate makes date the current selection, fetching its cards first if
// they are not loaded yet. Concurrent duplicate loads for the same date are
// coalesced. On fetch failure the previous selection and all loaded dates are
// left untouched, and the date remains unloaded so a retry re-fetches.
func (n *Navigator) SelectDate(ctx context.Context, date string) error {
	n.mu.Lock()
	n.addDateLocked(date)

	if n.loaded[date] {
		n.commitSelectionLocked(date, firstIndex(n.cards[date]))
		n.mu.Unlock()
		return nil
	}

	n.generation++
	gen := n.generation
	n.mu.Unlock()

	cards, err := n.load(ctx, date)

	n.mu.Lock()
	defer n.mu.Unlock()
	if err != nil {
		if errors.Is(err, context.Canceled) || gen != n.generation {
			return ErrSuperseded
		}
		return fmt.Errorf("load cards for %s: %w", date, err)
	}

	// Keep the data even when stale; only the selection is guarded.
	n.cards[date] = cards
	n.loaded[date] = true

	if gen != n.generation {
		return ErrSuperseded
	}
	n.commitSelectionLocked(date, firstIndex(cards))
	return nil
}

// SelectIndex moves within the current date's list. An out-of-range index is
// rejected; callers cross date edges via Advance instead.
func (n *Navigator) SelectIndex(index int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == "" {
		return ErrNoSelection
	}
	if index < 0 || index >= len(n.cards[n.current]) {
		return ErrOutOfRange
	}
	n.commitSelectionLocked(n.current, index)
	return nil
}

// SelectCard selects a card in the current date's list by snapshot ID.
func (n *Navigator) SelectCard(snapshotID int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == "" {
		return ErrNoSelection
	}
	for i, c := range n.cards[n.current] {
		if c.SnapshotID == snapshotID {
			n.commitSelectionLocked(n.current, i)
			return nil
		}
	}
	return ErrUnknownCard
}

// Advance moves one card backward or forward. Within the current date it just
// shifts the index. Past either edge it crosses to the adjacent date in the
// allowed-dates list — even an empty one — landing on the last card when
// moving backward and the first when moving forward. With no adjacent date
// the call is a no-op and reports moved=false.
func (n *Navigator) Advance(ctx context.Context, dir Direction) (bool, error) {
	n.mu.Lock()
	if n.current == "" {
		n.mu.Unlock()
		return false, ErrNoSelection
	}

	step := 1
	if dir == Prev {
		step = -1
	}
	if ni := n.index + step; n.index != NoCard && ni >= 0 && ni < len(n.cards[n.current]) {
		n.commitSelectionLocked(n.current, ni)
		n.mu.Unlock()
		return true, nil
	}

	target, ok := n.adjacentLocked(n.current, dir)
	if !ok {
		// Already at the first/last known date.
		n.mu.Unlock()
		return false, nil
	}

	n.generation++
	gen := n.generation
	alreadyLoaded := n.loaded[target]
	n.mu.Unlock()

	if !alreadyLoaded {
		cards, err := n.load(ctx, target)
		n.mu.Lock()
		if err != nil {
			n.mu.Unlock()
			if errors.Is(err, context.Canceled) || gen != n.generation {
				return false, ErrSuperseded
			}
			return false, fmt.Errorf("load cards for %s: %w", target, err)
		}
		n.cards[target] = cards
		n.loaded[target] = true
	} else {
		n.mu.Lock()
	}

	defer n.mu.Unlock()
	if gen != n.generation {
		return false, ErrSuperseded
	}

	list := n.cards[target]
	idx := firstIndex(list)
	if dir == Prev && len(list) > 0 {
		idx = len(list) - 1
	}
	n.commitSelectionLocked(target, idx)
	return true, nil
}

// load coalesces concurrent fetches for the same date. A load for a
// different date aborts the one in flight — the abort surfaces to its callers
// as ErrSuperseded, never as a user-visible error. The flight runs on a
// context detached from any single caller's request, so a joiner outliving
// the originator still gets a result.
func (n *Navigator) load(ctx context.Context, date string) ([]models.SnapshotCard, error) {
	n.mu.Lock()
	if n.inflightDate != date {
		if n.cancelLoad != nil {
			n.cancelLoad()
		}
		lctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		n.loadCtx, n.cancelLoad, n.inflightDate = lctx, cancel, date
	}
	lctx := n.loadCtx
	n.mu.Unlock()

	v, err, _ := n.group.Do(date, func() (interface{}, error) {
		return n.loader(lctx, date)
	})

	n.mu.Lock()
	if n.inflightDate == date {
		n.inflightDate = ""
	}
	n.mu.Unlock()

	if err != nil {
		return nil, err
	}
	cards, _ := v.([]models.SnapshotCard)
	return cards, nil
}

// commitSelectionLocked sets the selection and invalidates in-flight loads.
func (n *Navigator) commitSelectionLocked(date string, index int) {
	n.current = date
	n.index = index
	n.generation++
}

func (n *Navigator) addDateLocked(date string) {
	i := sort.SearchStrings(n.dates, date)
	if i < len(n.dates) && n.dates[i] == date {
		return
	}
	n.dates = append(n.dates, "")
	copy(n.dates[i+1:], n.dates[i:])
	n.dates[i] = date
}

// adjacentLocked resolves the next/previous date in the allowed-dates list.
// Empty dates are not skipped; they are selections of their own.
func (n *Navigator) adjacentLocked(date string, dir Direction) (string, bool) {
	i := sort.SearchStrings(n.dates, date)
	if i >= len(n.dates) || n.dates[i] != date {
		return "", false
	}
	if dir == Next {
		if i+1 >= len(n.dates) {
			return "", false
		}
		return n.dates[i+1], true
	}
	if i == 0 {
		return "", false
	}
	return n.dates[i-1], true
}

func firstIndex(cards []models.SnapshotCard) int {
	if len(cards) == 0 {
		return NoCard
	}
	return 0
}
