package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/check-security-updates/pkg/advisory"
)

// Entries older than this are dropped on reconciliation regardless of
// whether the package still has a pending update.
const maxEntryAgeDays = 365

const fileVersion = 1

const dateFormat = "2006-01-02"

// ErrCorrupt marks a cache file that exists but cannot be parsed. Callers
// are expected to continue from an empty cache and flag the run as degraded.
var ErrCorrupt = errors.New("cache file corrupt")

// Entry records when a package was first observed with a pending security
// update. Immutable once created; it is only ever deleted.
type Entry struct {
	Package   string
	FirstSeen time.Time // UTC midnight, day granularity only
	Severity  advisory.Severity
}

// AgeDays is the number of whole days the update has been outstanding.
func (e Entry) AgeDays(today time.Time) int {
	return DaysBetween(e.FirstSeen, today)
}

// Cache is the persistent first-seen store, keyed by normalized package
// name with set semantics.
type Cache struct {
	entries map[string]Entry
}

func New() *Cache {
	return &Cache{entries: map[string]Entry{}}
}

// Load reads a persisted cache. A missing file is an empty cache, not an
// error. Any other failure also yields a usable empty cache alongside the
// error so the run can continue degraded.
func Load(path string) (*Cache, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return New(), fmt.Errorf("read cache %s: %w", path, err)
	}

	var f cacheFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return New(), fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}

	c := New()
	for _, r := range f.Entries {
		day, err := time.ParseInLocation(dateFormat, r.FirstSeen, time.UTC)
		if err != nil {
			return New(), fmt.Errorf("%w: %s: bad first_seen %q", ErrCorrupt, path, r.FirstSeen)
		}
		c.entries[r.Package] = Entry{Package: r.Package, FirstSeen: day, Severity: r.Severity}
	}
	return c, nil
}

// Reconcile brings the cache in line with the advisories outstanding today:
// packages seen for the first time are inserted with first-seen = today,
// packages no longer reported are dropped, and entries past the retention
// cap are dropped even if still reported (they re-enter as new). Returns
// the entries inserted this run. Idempotent for a fixed input and day.
func (c *Cache) Reconcile(current []advisory.Advisory, today time.Time) []Entry {
	today = Day(today)

	outstanding := make(map[string]advisory.Advisory, len(current))
	for _, a := range current {
		outstanding[a.Package] = a
	}

	for key, e := range c.entries {
		if _, ok := outstanding[key]; !ok {
			delete(c.entries, key) // applied or superseded
			continue
		}
		if e.AgeDays(today) > maxEntryAgeDays {
			delete(c.entries, key)
		}
	}

	var inserted []Entry
	for key, a := range outstanding {
		if _, ok := c.entries[key]; ok {
			continue
		}
		e := Entry{Package: key, FirstSeen: today, Severity: a.Severity}
		c.entries[key] = e
		inserted = append(inserted, e)
	}
	sort.Slice(inserted, func(i, j int) bool { return inserted[i].Package < inserted[j].Package })
	return inserted
}

// Save atomically replaces the cache file: the new content lands in a temp
// file in the same directory and is renamed over the old one, so a crash
// mid-write leaves the previous valid state intact. An flock on a sidecar
// file guards against overlapping invocations.
func (c *Cache) Save(path string) error {
	f := cacheFile{Version: fileVersion}
	for _, e := range c.Entries() {
		f.Entries = append(f.Entries, entryRecord{
			Package:   e.Package,
			FirstSeen: e.FirstSeen.Format(dateFormat),
			Severity:  e.Severity,
		})
	}
	b, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	guard, err := acquire(path + ".lock")
	if err != nil {
		return fmt.Errorf("lock cache %s: %w", path, err)
	}
	defer guard.release()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write cache %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace cache %s: %w", path, err)
	}
	return nil
}

func (c *Cache) Get(pkg string) (Entry, bool) {
	e, ok := c.entries[pkg]
	return e, ok
}

func (c *Cache) Len() int { return len(c.entries) }

// Entries returns all entries sorted by package name.
func (c *Cache) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Package < out[j].Package })
	return out
}

type cacheFile struct {
	Version int           `yaml:"version"`
	Entries []entryRecord `yaml:"entries"`
}

type entryRecord struct {
	Package   string            `yaml:"package"`
	FirstSeen string            `yaml:"first_seen"`
	Severity  advisory.Severity `yaml:"severity"`
}

// Day truncates t to UTC midnight. Only day granularity matters for aging,
// and UTC keeps the arithmetic timezone-free.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween is the whole-day distance from one date to another.
func DaysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}
