// Package session drives an interactive exploration: search-as-you-type
// suggestions, declarant searches and the three rosters. Every fetch carries
// a generation token and its result is dropped when a newer fetch of the same
// kind has started.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"cruce/internal/conflict"
	"cruce/internal/core"
	"cruce/internal/log"
	"cruce/internal/source"
	"cruce/internal/view"
)

// Messages shown to the user.
const (
	MsgEmptyQuery   = "Ingresa un nombre para buscar"
	MsgFetchFailed  = "No se pudieron obtener los datos. Intenta de nuevo."
	MsgRosterFailed = "No se pudo obtener el padrón de declarantes."
)

// ErrStale marks a result discarded because a newer request superseded it.
var ErrStale = errors.New("session: stale result discarded")

// Notifier is told about every search whose records carry a conflict. It is
// called on the search path and must return promptly.
type Notifier interface {
	NotifyConflict(ctx context.Context, declarant string, c conflict.Result) error
}

// State is a snapshot of everything visible.
type State struct {
	Input           string
	Suggestions     []string
	Active          int
	ShowSuggestions bool

	Query     string
	Loading   bool
	Error     string
	NoMatches string
	Records   []core.ContractRecord
	View      *view.Timeline

	Declarants  []string
	ListLoading bool
	ListError   string
	CrossSort   core.SortKey
	Cross       []core.CrossRow
	Conflicts   []core.ConflictRow
}

type Option func(*Explorer)

func WithDebounce(d *Debouncer) Option {
	return func(e *Explorer) { e.debouncer = d }
}

func WithNotifier(n Notifier) Option {
	return func(e *Explorer) { e.notifier = n }
}

func WithLogger(l *log.Logger) Option {
	return func(e *Explorer) { e.logger = l }
}

// WithOnChange registers a callback invoked with a fresh snapshot after every
// state change. It runs outside the session lock and may be called from timer
// goroutines.
func WithOnChange(fn func(State)) Option {
	return func(e *Explorer) { e.onChange = fn }
}

type Explorer struct {
	src       source.Source
	notifier  Notifier
	logger    *log.Logger
	debouncer *Debouncer
	onChange  func(State)

	ctx      context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup

	mu          sync.Mutex
	closed      bool
	state       State
	suggestGen  uint64
	searchGen   uint64
	listGen     uint64
	crossGen    uint64
	conflictGen uint64
}

func New(src source.Source, opts ...Option) *Explorer {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Explorer{
		src:    src,
		ctx:    ctx,
		cancel: cancel,
		state:  State{Active: -1, CrossSort: core.SortByAmount},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.debouncer == nil {
		e.debouncer = NewDebouncer(DefaultDebounce)
	}
	if e.logger == nil {
		e.logger = log.Discard()
	}
	e.logger = e.logger.WithComponent(log.ComponentSession)
	return e
}

// State returns a copy of the current state.
func (e *Explorer) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

func (e *Explorer) snapshot() State {
	s := e.state
	s.Suggestions = slices.Clone(s.Suggestions)
	s.Records = slices.Clone(s.Records)
	s.Declarants = slices.Clone(s.Declarants)
	s.Cross = slices.Clone(s.Cross)
	s.Conflicts = slices.Clone(s.Conflicts)
	return s
}

func (e *Explorer) changed() {
	if e.onChange != nil {
		e.onChange(e.State())
	}
}

// Type records the input text and schedules a debounced suggestion fetch.
// Queries shorter than source.MinSuggestLength clear suggestions at once.
func (e *Explorer) Type(text string) {
	q := strings.TrimSpace(text)
	short := len([]rune(q)) < source.MinSuggestLength

	e.mu.Lock()
	e.state.Input = text
	e.suggestGen++
	gen := e.suggestGen
	if short {
		e.clearSuggestions()
	}
	e.mu.Unlock()

	if short {
		e.debouncer.Cancel()
	} else {
		e.debouncer.Debounce(func() { e.fetchSuggestions(gen, q) })
	}
	e.changed()
}

func (e *Explorer) fetchSuggestions(gen uint64, q string) {
	e.mu.Lock()
	if e.closed || gen != e.suggestGen {
		e.mu.Unlock()
		return
	}
	e.inflight.Add(1)
	e.mu.Unlock()
	defer e.inflight.Done()

	items, err := e.src.Suggest(e.ctx, q)

	e.mu.Lock()
	if gen != e.suggestGen {
		e.mu.Unlock()
		e.logger.Debug("Stale suggestions dropped", log.FieldQuery, q, log.FieldGeneration, gen)
		return
	}
	if err != nil {
		e.clearSuggestions()
	} else {
		e.state.Suggestions = items
		e.state.ShowSuggestions = len(items) > 0
		e.state.Active = -1
		if len(items) > 0 {
			e.state.Active = 0
		}
	}
	e.mu.Unlock()

	if err != nil {
		e.logger.Warn("Suggestion fetch failed", log.FieldQuery, q, log.FieldError, err)
	}
	e.changed()
}

// clearSuggestions must be called with e.mu held.
func (e *Explorer) clearSuggestions() {
	e.state.Suggestions = nil
	e.state.ShowSuggestions = false
	e.state.Active = -1
}

// MoveSelection moves the active suggestion by delta, wrapping at both ends.
func (e *Explorer) MoveSelection(delta int) {
	e.mu.Lock()
	n := len(e.state.Suggestions)
	if !e.state.ShowSuggestions || n == 0 {
		e.mu.Unlock()
		return
	}
	e.state.Active = ((e.state.Active+delta)%n + n) % n
	e.mu.Unlock()
	e.changed()
}

// Escape closes the suggestion list.
func (e *Explorer) Escape() {
	e.mu.Lock()
	e.state.ShowSuggestions = false
	e.mu.Unlock()
	e.changed()
}

// Accept searches the active suggestion when the list is open, otherwise
// the typed text.
func (e *Explorer) Accept(ctx context.Context) error {
	e.mu.Lock()
	name := e.state.Input
	pick := e.state.ShowSuggestions && e.state.Active >= 0 && e.state.Active < len(e.state.Suggestions)
	if pick {
		name = e.state.Suggestions[e.state.Active]
	}
	e.mu.Unlock()
	if pick {
		return e.Select(ctx, name)
	}
	return e.Search(ctx, name)
}

// Select searches a name picked from the suggestions or a roster.
func (e *Explorer) Select(ctx context.Context, name string) error {
	e.mu.Lock()
	e.state.Input = name
	e.state.ShowSuggestions = false
	e.mu.Unlock()
	return e.Search(ctx, name)
}

// Search fetches and replaces the record set of one declarant. The previous
// records are cleared when the search starts. Zero records is not an error.
func (e *Explorer) Search(ctx context.Context, name string) error {
	q := strings.TrimSpace(name)

	e.mu.Lock()
	if q == "" {
		e.state.Error = MsgEmptyQuery
		e.mu.Unlock()
		e.changed()
		return core.ErrEmptyName
	}
	e.searchGen++
	gen := e.searchGen
	e.state.Query = q
	e.state.Loading = true
	e.state.Error = ""
	e.state.NoMatches = ""
	e.state.Records = nil
	e.state.View = nil
	e.mu.Unlock()
	e.changed()

	records, err := e.src.ContractsByName(ctx, q)

	e.mu.Lock()
	if gen != e.searchGen {
		e.mu.Unlock()
		e.logger.Debug("Stale search dropped", log.FieldDeclarant, q, log.FieldGeneration, gen)
		return ErrStale
	}
	e.state.Loading = false
	e.state.Input = ""
	e.suggestGen++
	e.clearSuggestions()

	var tl view.Timeline
	if err != nil {
		e.state.Error = MsgFetchFailed
		e.state.Records = []core.ContractRecord{}
	} else {
		tl = view.BuildTimeline(q, records)
		e.state.Records = records
		e.state.View = &tl
		if len(records) == 0 {
			e.state.NoMatches = q
		}
	}
	e.mu.Unlock()
	e.debouncer.Cancel()
	e.changed()

	if err != nil {
		e.logger.WarnContext(ctx, "Declarant search failed", log.FieldDeclarant, q, log.FieldError, err)
		return fmt.Errorf("search %q: %w", q, err)
	}
	e.logger.InfoContext(ctx, "Declarant search completed", log.FieldDeclarant, q, log.FieldRecords, len(records))

	if tl.Conflict.HasConflict && e.notifier != nil {
		if err := e.notifier.NotifyConflict(ctx, q, tl.Conflict); err != nil {
			e.logger.WarnContext(ctx, "Conflict notification failed", log.FieldDeclarant, q, log.FieldError, err)
		}
	}
	return nil
}

// LoadRosters fetches the full roster, the before/after roster and the
// conflict roster concurrently. Only a full-roster failure is reported; the
// other two are logged and leave their previous rows in place.
func (e *Explorer) LoadRosters(ctx context.Context) error {
	e.mu.Lock()
	e.listGen++
	e.crossGen++
	e.conflictGen++
	listGen, crossGen, conflictGen := e.listGen, e.crossGen, e.conflictGen
	key := e.state.CrossSort
	e.state.ListLoading = true
	e.state.ListError = ""
	e.mu.Unlock()
	e.changed()

	var g errgroup.Group
	g.Go(func() error { return e.loadDeclarants(ctx, listGen) })
	g.Go(func() error {
		e.loadCross(ctx, crossGen, key)
		return nil
	})
	g.Go(func() error {
		e.loadConflicts(ctx, conflictGen)
		return nil
	})
	return g.Wait()
}

// SetCrossSort changes the before/after ordering and refetches that roster.
func (e *Explorer) SetCrossSort(ctx context.Context, key core.SortKey) error {
	e.mu.Lock()
	e.state.CrossSort = key
	e.crossGen++
	gen := e.crossGen
	e.mu.Unlock()
	e.changed()
	return e.loadCross(ctx, gen, key)
}

func (e *Explorer) loadDeclarants(ctx context.Context, gen uint64) error {
	names, err := e.src.ListDeclarants(ctx)

	e.mu.Lock()
	if gen != e.listGen {
		e.mu.Unlock()
		return ErrStale
	}
	e.state.ListLoading = false
	if err != nil {
		e.state.ListError = MsgRosterFailed
	} else {
		e.state.Declarants = names
	}
	e.mu.Unlock()
	e.changed()

	if err != nil {
		e.logger.WarnContext(ctx, "Declarant roster fetch failed", log.FieldOperation, log.OpRoster, log.FieldError, err)
		return fmt.Errorf("list declarants: %w", err)
	}
	return nil
}

func (e *Explorer) loadCross(ctx context.Context, gen uint64, key core.SortKey) error {
	rows, err := e.src.CrossRoster(ctx, key)
	if err != nil {
		e.logger.WarnContext(ctx, "Cross roster fetch failed", log.FieldOperation, log.OpCross, log.FieldSortKey, key, log.FieldError, err)
		return fmt.Errorf("cross roster: %w", err)
	}

	e.mu.Lock()
	if gen != e.crossGen {
		e.mu.Unlock()
		return ErrStale
	}
	e.state.Cross = rows
	e.mu.Unlock()
	e.changed()
	return nil
}

func (e *Explorer) loadConflicts(ctx context.Context, gen uint64) error {
	rows, err := e.src.ConflictRoster(ctx)
	if err != nil {
		e.logger.WarnContext(ctx, "Conflict roster fetch failed", log.FieldOperation, log.OpConflict, log.FieldError, err)
		return fmt.Errorf("conflict roster: %w", err)
	}

	e.mu.Lock()
	if gen != e.conflictGen {
		e.mu.Unlock()
		return ErrStale
	}
	e.state.Conflicts = rows
	e.mu.Unlock()
	e.changed()
	return nil
}

// Close cancels pending suggestion work and waits for in-flight fetches.
func (e *Explorer) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.debouncer.Cancel()
	e.cancel()
	e.inflight.Wait()
}
