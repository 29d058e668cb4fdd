// Package form keeps in-progress edits apart from fetched data until the
// user saves or cancels.
//
//	Viewing -> Editing -> Saving -> Viewing
//	                   \-> Editing (error)
//	Editing -> Viewing (cancel)
package form

import (
	"context"
	"sync"

	pkgerrors "github.com/angelmondragon/soundmarket/pkg/errors"
)

// State is the editing state of a form.
type State int

const (
	Viewing State = iota
	Editing
	Saving
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	}
	return "viewing"
}

// Submit sends the draft and returns the shape to display afterwards.
type Submit[T any] func(ctx context.Context, draft T) (T, error)

// Holder owns the displayed value and the editable draft. T should be a value
// type: the draft is a copy of the displayed value.
type Holder[T any] struct {
	invalidMessage string
	check          func(T) error

	mu    sync.Mutex
	state State
	view  T
	draft T
	err   error
}

// Option configures a holder.
type Option[T any] func(*Holder[T])

// WithInvalidMessage sets the text shown when struct validation fails.
func WithInvalidMessage[T any](message string) Option[T] {
	return func(h *Holder[T]) { h.invalidMessage = message }
}

// WithCheck adds a cross-field check run before struct validation.
func WithCheck[T any](check func(T) error) Option[T] {
	return func(h *Holder[T]) { h.check = check }
}

// NewHolder starts in Viewing with initial displayed.
func NewHolder[T any](initial T, opts ...Option[T]) *Holder[T] {
	h := &Holder[T]{view: initial}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// State returns the current state.
func (h *Holder[T]) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// View returns the displayed value.
func (h *Holder[T]) View() T {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.view
}

// Draft returns the editable snapshot.
func (h *Holder[T]) Draft() T {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.draft
}

// Err returns the last save error.
func (h *Holder[T]) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Load replaces the displayed value with freshly fetched data. An open draft
// is left alone.
func (h *Holder[T]) Load(value T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.view = value
}

// Edit copies the displayed value into the draft.
func (h *Holder[T]) Edit() T {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == Viewing {
		h.draft = h.view
		h.err = nil
		h.state = Editing
	}
	return h.draft
}

// Update changes the draft. It is a no-op outside Editing.
func (h *Holder[T]) Update(fn func(draft *T)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != Editing {
		return
	}
	fn(&h.draft)
}

// Cancel drops the draft without calling the API.
func (h *Holder[T]) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != Editing {
		return
	}
	var zero T
	h.draft = zero
	h.err = nil
	h.state = Viewing
}

// Save validates the draft, submits it and on success displays the result.
// On failure the holder stays in Editing with the error recorded.
func (h *Holder[T]) Save(ctx context.Context, submit Submit[T]) error {
	h.mu.Lock()
	if h.state != Editing {
		h.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeConflict, "form is not being edited")
	}
	draft := h.draft
	if err := h.validate(draft); err != nil {
		h.err = err
		h.mu.Unlock()
		return err
	}
	h.state = Saving
	h.mu.Unlock()

	saved, err := submit(ctx, draft)

	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.err = err
		h.state = Editing
		return err
	}
	var zero T
	h.view = saved
	h.draft = zero
	h.err = nil
	h.state = Viewing
	return nil
}

func (h *Holder[T]) validate(draft T) error {
	if h.check != nil {
		if err := h.check(draft); err != nil {
			return err
		}
	}
	if !isStruct(draft) {
		return nil
	}
	return Check(draft, h.invalidMessage)
}
