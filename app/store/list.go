// Package store keeps named collections of records mirrored in memory and in a durable key-value slot.
// Every mutation rewrites the whole slot; clearing deletes the slot entirely.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	log "github.com/go-pkgz/lgr"
)

// CorruptSuffix is appended to a slot key to keep unreadable data aside
const CorruptSuffix = ".corrupt"

// Slots is a durable key-value storage. Get reports ok=false for an absent slot.
type Slots interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Confirmer answers a blocking yes/no question
type Confirmer interface {
	Confirm(question string) bool
}

// List is an ordered collection of T, newest first, bound to a single slot
type List[T any] struct {
	key   string
	slots Slots

	mu      sync.RWMutex
	items   []T
	corrupt bool
}

// New makes an empty list for key. Call Load to populate it from the slot.
func New[T any](slots Slots, key string) *List[T] {
	return &List[T]{key: key, slots: slots, items: []T{}}
}

// Key returns the slot key
func (l *List[T]) Key() string { return l.key }

// Load reads the slot into memory. An absent slot gives an empty list.
// Unparsable data gives an empty list too; the raw text is copied to key+CorruptSuffix
// and Corrupted reports true until the next successful mutation.
func (l *List[T]) Load(ctx context.Context) error {
	raw, ok, err := l.slots.Get(ctx, l.key)
	if err != nil {
		return fmt.Errorf("failed to read slot %s: %w", l.key, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.corrupt = false
	if !ok {
		l.items = []T{}
		return nil
	}

	items, err := Unmarshal[T](raw)
	if err != nil {
		log.Printf("[WARN] stored data in %s is unreadable, starting empty: %v", l.key, err)
		if e := l.slots.Set(ctx, l.key+CorruptSuffix, raw); e != nil {
			log.Printf("[WARN] failed to back up unreadable %s: %v", l.key, e)
		}
		l.items = []T{}
		l.corrupt = true
		return nil
	}
	l.items = items
	log.Printf("[DEBUG] loaded %d records from %s", len(items), l.key)
	return nil
}

// Add inserts rec at the head and persists the whole list.
// On write failure memory is left as it was before the call.
func (l *List[T]) Add(ctx context.Context, rec T) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	updated := make([]T, 0, len(l.items)+1)
	updated = append(updated, rec)
	updated = append(updated, l.items...)

	data, err := Marshal(updated)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", l.key, err)
	}
	if err := l.slots.Set(ctx, l.key, data); err != nil {
		return fmt.Errorf("failed to write slot %s: %w", l.key, err)
	}
	l.items = updated
	l.corrupt = false
	return nil
}

// Clear asks c the question and, on yes, empties the list and deletes the slot.
// Returns true if the list was cleared.
func (l *List[T]) Clear(ctx context.Context, c Confirmer, question string) (bool, error) {
	if c == nil || !c.Confirm(question) {
		return false, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.slots.Delete(ctx, l.key); err != nil {
		return false, fmt.Errorf("failed to delete slot %s: %w", l.key, err)
	}
	l.items = []T{}
	l.corrupt = false
	log.Printf("[INFO] cleared %s", l.key)
	return true, nil
}

// Items returns a copy of the records in current order
func (l *List[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	res := make([]T, len(l.items))
	copy(res, l.items)
	return res
}

// Len returns the number of records
func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Corrupted reports whether the last Load found unreadable data
func (l *List[T]) Corrupted() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.corrupt
}

// Marshal encodes records as the slot text. HTML characters are kept as is, escaping is up to rendering.
// U+2028 and U+2029 are always written as \u2028 and \u2029, so text holding them literally
// decodes to the same records but is not reproduced byte for byte.
func Marshal[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	buf := bytes.Buffer{}
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Unmarshal decodes slot text. JSON null decodes to an empty list.
func Unmarshal[T any](raw string) ([]T, error) {
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
