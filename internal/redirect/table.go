package redirect

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rasterandstate/majestic-canon/internal/identity"
)

var (
	// ErrCycle is matched by every CycleError.
	ErrCycle = errors.New("redirect cycle")
	// ErrSelfRedirect indicates a redirect from an id to itself.
	ErrSelfRedirect = errors.New("redirect to self")
	// ErrConflict indicates an id already retired into a different target.
	ErrConflict = errors.New("conflicting redirect")
)

// CycleError reports a chain that never reaches a current id. Chain starts
// and ends with the same id.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycle, strings.Join(e.Chain, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// Entry is one flattened redirect.
type Entry struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Table is a flattened redirect table. The zero value is not usable; call
// New or Load.
type Table struct {
	mu      sync.RWMutex
	entries map[string]string // retired id -> current id
}

// New returns an empty table.
func New() *Table {
	return &Table{entries: make(map[string]string)}
}

// Load builds a flattened table from a raw mapping that may contain
// multi-hop chains. Every cycle is reported; no table is returned when any
// exists.
func Load(raw map[string]string) (*Table, error) {
	clean := make(map[string]string, len(raw))
	var errs []error
	for from, to := range raw {
		from, to = strings.TrimSpace(from), strings.TrimSpace(to)
		if err := checkID(from); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := checkID(to); err != nil {
			errs = append(errs, err)
			continue
		}
		clean[from] = to
	}

	t := New()
	reported := make(map[string]struct{})
	for _, from := range sortedKeys(clean) {
		terminal, cycle := follow(clean, from)
		if cycle != nil {
			key := cycle[0]
			if _, seen := reported[key]; !seen {
				reported[key] = struct{}{}
				errs = append(errs, &CycleError{Chain: cycle})
			}
			continue
		}
		t.entries[from] = terminal
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return t, nil
}

// follow walks raw from start. It returns the terminal id, or the cycle the
// walk fell into rotated to begin at its smallest member.
func follow(raw map[string]string, start string) (string, []string) {
	position := map[string]int{start: 0}
	path := []string{start}
	current := start
	for {
		next, ok := raw[current]
		if !ok {
			return current, nil
		}
		if idx, seen := position[next]; seen {
			return "", rotateCycle(path[idx:])
		}
		position[next] = len(path)
		path = append(path, next)
		current = next
	}
}

func rotateCycle(members []string) []string {
	lowest := 0
	for i, id := range members {
		if id < members[lowest] {
			lowest = i
		}
	}
	chain := make([]string, 0, len(members)+1)
	chain = append(chain, members[lowest:]...)
	chain = append(chain, members[:lowest]...)
	return append(chain, chain[0])
}

// Resolve returns the current id for id, or id unchanged when it was never
// retired.
func (t *Table) Resolve(id string) string {
	id = strings.TrimSpace(id)
	t.mu.RLock()
	defer t.mu.RUnlock()
	if to, ok := t.entries[id]; ok {
		return to
	}
	return id
}

// Retired reports whether id has been superseded.
func (t *Table) Retired(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.entries[strings.TrimSpace(id)]
	return ok
}

// Add retires from in favor of to. Existing entries that pointed at from are
// rewritten to the current id of to in the same critical section. Adding a
// redirect that already exists is a no-op. On error the table is unchanged.
func (t *Table) Add(from, to string) error {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if err := checkID(from); err != nil {
		return err
	}
	if err := checkID(to); err != nil {
		return err
	}
	if from == to {
		return fmt.Errorf("%w: %s", ErrSelfRedirect, from)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	terminal := to
	if current, ok := t.entries[to]; ok {
		terminal = current
	}
	if terminal == from {
		return &CycleError{Chain: rotateCycle([]string{from, to})}
	}
	if existing, ok := t.entries[from]; ok {
		if existing == terminal {
			return nil
		}
		return fmt.Errorf("%w: %s already redirects to %s, not %s", ErrConflict, from, existing, terminal)
	}

	for retired, current := range t.entries {
		if current == from {
			t.entries[retired] = terminal
		}
	}
	t.entries[from] = terminal
	return nil
}

// Pointing returns the retired ids whose entry currently names id, sorted.
func (t *Table) Pointing(id string) []string {
	id = strings.TrimSpace(id)
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []string
	for _, from := range sortedKeys(t.entries) {
		if t.entries[from] == id {
			out = append(out, from)
		}
	}
	return out
}

// Unretire reverses an Add of id: its entry is removed and every id in
// formerly is pointed back at id. Callers take formerly from Pointing before
// the Add.
func (t *Table) Unretire(id string, formerly []string) {
	id = strings.TrimSpace(id)
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, id)
	for _, from := range formerly {
		t.entries[from] = id
	}
}

// Len returns the number of retired ids.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Entries returns a snapshot sorted by From.
func (t *Table) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, 0, len(t.entries))
	for _, from := range sortedKeys(t.entries) {
		out = append(out, Entry{From: from, To: t.entries[from]})
	}
	return out
}

// Map returns a snapshot of the table as a plain mapping.
func (t *Table) Map() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]string, len(t.entries))
	for k, v := range t.entries {
		out[k] = v
	}
	return out
}

func checkID(id string) error {
	if _, err := identity.ParseID(id); err != nil {
		return fmt.Errorf("redirect id: %w", err)
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
