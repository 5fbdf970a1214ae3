// Package editor owns the document being edited. It serializes mutations,
// hands out consistent snapshots for export, and keeps the navigation state
// apart from the document model.
package editor

import (
	"sync"
	"time"

	"github.com/KevinKickass/OpenSequenceCore/internal/document"
	"go.uber.org/zap"
)

// Change describes one completed mutation.
type Change struct {
	Kind      string    `json:"kind"`
	Path      string    `json:"path,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Listener is called after a mutation, outside the workspace lock.
type Listener func(Change)

type Workspace struct {
	mu        sync.RWMutex
	doc       *document.Document
	cursor    Cursor
	listeners []Listener
	logger    *zap.Logger
}

func NewWorkspace(doc *document.Document, logger *zap.Logger) *Workspace {
	if doc == nil {
		doc = document.New()
	}
	return &Workspace{
		doc:    doc,
		cursor: NewCursor(),
		logger: logger,
	}
}

// Subscribe registers l for every future change.
func (w *Workspace) Subscribe(l Listener) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, l)
}

// Update runs fn with exclusive access to the document. The cursor keeps
// pointing at the same entities afterwards. Listeners are notified only when
// fn succeeds.
func (w *Workspace) Update(kind, path string, fn func(doc *document.Document) error) error {
	w.mu.Lock()
	sel := w.cursor.selected(w.doc)
	if err := fn(w.doc); err != nil {
		w.mu.Unlock()
		return err
	}
	w.cursor.retarget(w.doc, sel)
	listeners := append([]Listener(nil), w.listeners...)
	w.mu.Unlock()

	w.notify(listeners, Change{Kind: kind, Path: path, Timestamp: time.Now()})
	return nil
}

// View runs fn with shared access. fn must not mutate the document.
func (w *Workspace) View(fn func(doc *document.Document) error) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return fn(w.doc)
}

// Snapshot returns a deep copy of the current document.
func (w *Workspace) Snapshot() *document.Document {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.doc.Clone()
}

// Replace swaps in a new document and resets the cursor.
func (w *Workspace) Replace(doc *document.Document, source string) {
	w.mu.Lock()
	w.doc = doc
	w.cursor = NewCursor()
	listeners := append([]Listener(nil), w.listeners...)
	w.mu.Unlock()

	w.logger.Info("Document replaced",
		zap.String("source", source),
		zap.Int("io_elements", doc.IO.Len()),
		zap.Int("subprograms", doc.Subprograms.Len()),
		zap.Int("rules", doc.Rules.Len()))
	w.notify(listeners, Change{Kind: "document.replaced", Path: source, Timestamp: time.Now()})
}

func (w *Workspace) notify(listeners []Listener, c Change) {
	w.logger.Debug("Document changed", zap.String("kind", c.Kind), zap.String("path", c.Path))
	for _, l := range listeners {
		l(c)
	}
}
