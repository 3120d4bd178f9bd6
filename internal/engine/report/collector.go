package report

import (
	"sort"
	"sync"

	"apiguard/internal/engine/model"
)

// Result is the outcome of one analysis run.
type Result struct {
	Violations []ViolationRecord
	Notices    []model.Notice
}

// Count returns the number of violations per kind.
func (r *Result) Count() map[model.Kind]int {
	out := make(map[model.Kind]int)
	for _, v := range r.Violations {
		out[v.Kind]++
	}
	return out
}

// Collector merges records from independent passes. Exact duplicates are
// dropped; distinct locations are always kept.
type Collector struct {
	mu         sync.Mutex
	violations []ViolationRecord
	notices    []model.Notice
	seen       map[string]bool
	seenNotice map[string]bool
}

func NewCollector() *Collector {
	return &Collector{
		seen:       make(map[string]bool),
		seenNotice: make(map[string]bool),
	}
}

// Add merges one worker's buffer.
func (c *Collector) Add(violations []ViolationRecord, notices []model.Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, v := range violations {
		key := v.Key()
		if c.seen[key] {
			continue
		}
		c.seen[key] = true
		c.violations = append(c.violations, v)
	}
	for _, n := range notices {
		key := n.Key()
		if c.seenNotice[key] {
			continue
		}
		c.seenNotice[key] = true
		c.notices = append(c.notices, n)
	}
}

// Result returns the merged records sorted by location, element and kind.
func (c *Collector) Result() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := &Result{
		Violations: append([]ViolationRecord(nil), c.violations...),
		Notices:    append([]model.Notice(nil), c.notices...),
	}
	sort.SliceStable(res.Violations, func(i, j int) bool {
		a, b := res.Violations[i], res.Violations[j]
		if a.Location.Type != b.Location.Type {
			return a.Location.Type < b.Location.Type
		}
		if ka, kb := a.Location.Key(), b.Location.Key(); ka != kb {
			return ka < kb
		}
		if ea, eb := a.Element.ID(), b.Element.ID(); ea != eb {
			return ea < eb
		}
		return a.Kind < b.Kind
	})
	sort.SliceStable(res.Notices, func(i, j int) bool {
		a, b := res.Notices[i], res.Notices[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Key() < b.Key()
	})
	return res
}
