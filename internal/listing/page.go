package listing

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// TextInput is the free-text search box.
type TextInput struct {
	mu    sync.RWMutex
	value string
}

// Set replaces the typed value.
func (t *TextInput) Set(value string) {
	t.mu.Lock()
	t.value = value
	t.mu.Unlock()
}

// Value returns the raw typed value, untrimmed.
func (t *TextInput) Value() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.value
}

// Page wires one selection store, dispatcher and renderer together for a page lifetime.
type Page struct {
	store      *Store
	input      *TextInput
	dispatcher *Dispatcher
	renderer   *Renderer
	logger     *zap.Logger

	// renderMu serialises the staleness check with the render it guards.
	renderMu sync.Mutex
}

// NewPage constructs a page around the given collaborators.
func NewPage(store *Store, dispatcher *Dispatcher, renderer *Renderer, logger *zap.Logger) *Page {
	if store == nil {
		store = NewStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Page{store: store, input: &TextInput{}, dispatcher: dispatcher, renderer: renderer, logger: logger}
}

// Store exposes the page's selection store.
func (p *Page) Store() *Store {
	return p.store
}

// Input exposes the page's text input.
func (p *Page) Input() *TextInput {
	return p.input
}

// Activate handles a click on a dropdown item identified by its class.
func (p *Page) Activate(itemClass, value string) error {
	dim, err := ParseDimension(itemClass)
	if err != nil {
		return err
	}
	return p.store.SetDimension(dim, value)
}

// Clear handles the "any" entry of a dropdown, returning its dimension to unset.
func (p *Page) Clear(itemClass string) error {
	dim, err := ParseDimension(itemClass)
	if err != nil {
		return err
	}
	return p.store.Clear(dim)
}

// Search reads the selection and the text input now, then dispatches in the background.
// The returned channel yields the outcome once and is then closed. The container is
// only updated when the outcome belongs to the most recent search.
func (p *Page) Search(ctx context.Context) <-chan Outcome {
	selection := p.store.ReadAll()
	term := p.input.Value()
	seq := p.dispatcher.Next()

	done := make(chan Outcome, 1)
	go func() {
		defer close(done)
		outcome := p.dispatcher.dispatch(ctx, seq, selection, term)
		p.apply(outcome)
		done <- outcome
	}()
	return done
}

func (p *Page) apply(o Outcome) {
	p.renderMu.Lock()
	defer p.renderMu.Unlock()
	if !p.dispatcher.IsLatest(o.Seq) {
		p.logger.Info("discarding stale search outcome",
			zap.Uint64("seq", o.Seq),
			zap.Bool("failed", o.Err != nil),
			zap.Error(o.Err),
		)
		return
	}
	p.renderer.Apply(o)
}
