package plugincore

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// Registry maps command names to implementations of signature F.
//
// Every operation takes the same mutex, so each call is atomic with respect to
// the others. There are no cross-call transactions: Count followed by a series
// of Get calls may observe registrations made in between.
type Registry[F any] struct {
	mu       sync.Mutex
	commands map[string]F
	diag     *Channel
}

// NewRegistry returns an empty registry reporting warnings to diag.
// A nil diag gets a private buffering channel.
func NewRegistry[F any](diag *Channel) *Registry[F] {
	if diag == nil {
		diag = NewChannel()
	}

	return &Registry[F]{
		commands: make(map[string]F),
		diag:     diag,
	}
}

// scrubName trims surrounding whitespace.
func scrubName(name string) string {
	return strings.TrimSpace(name)
}

func hasInternalSpace(name string) bool {
	return strings.IndexFunc(name, unicode.IsSpace) >= 0
}

// isNil reports whether impl is a nil func, pointer, interface or other nilable value.
func isNil(impl any) bool {
	if impl == nil {
		return true
	}

	v := reflect.ValueOf(impl)
	switch v.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan,
		reflect.UnsafePointer:
		return v.IsNil()
	default:
		return false
	}
}

// Register adds impl under the trimmed name. The first registration of a name
// wins; later ones fail with ErrDuplicate and leave the existing entry alone.
func (r *Registry[F]) Register(name string, impl F) error {
	key := scrubName(name)
	if key == "" {
		return ErrEmptyName
	}
	if isNil(impl) {
		return fmt.Errorf("%w: %q", ErrNilCommand, key)
	}

	r.mu.Lock()
	if _, ok := r.commands[key]; ok {
		r.mu.Unlock()
		r.diag.Logf(LevelWarn, "Duplicate command %q ignored (first registration wins)", key)

		return fmt.Errorf("%w: %q", ErrDuplicate, key)
	}
	r.commands[key] = impl
	r.mu.Unlock()

	if hasInternalSpace(key) {
		r.diag.Logf(LevelWarn, "Command %q registered with internal whitespace in command name", key)
	}

	return nil
}

// Exists reports whether name is registered.
func (r *Registry[F]) Exists(name string) bool {
	_, ok := r.Get(name)

	return ok
}

// Get returns the implementation registered under name.
func (r *Registry[F]) Get(name string) (F, bool) {
	var zero F

	key := scrubName(name)
	if key == "" {
		return zero, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	impl, ok := r.commands[key]

	return impl, ok
}

// Count returns the number of registered commands.
func (r *Registry[F]) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.commands)
}

// ForEach calls fn for every command in ascending name order until fn returns false.
//
// The registry lock is held for the whole traversal, including every call to fn.
// fn must not call back into the same registry or it will deadlock.
func (r *Registry[F]) ForEach(fn func(name string, impl F) bool) {
	if fn == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range r.sortedNamesLocked() {
		if !fn(name, r.commands[name]) {
			return
		}
	}
}

// Names returns a sorted snapshot of the registered names.
func (r *Registry[F]) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.sortedNamesLocked()
}

func (r *Registry[F]) sortedNamesLocked() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
