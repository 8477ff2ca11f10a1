// Package tt implements the bounded, hash-keyed transposition table
// that lets sibling subtrees share statistics for equivalent positions.
// It is an optimisation only: correctness of the search must not depend
// on what — or whether — anything is stored here.
package tt

import "sync"

const numShards = 64

// key identifies a position by its board hash and komi, since the same
// stones-only hash under different komi is not the same search target.
type key struct {
	hash uint64
	komi float64
}

// Entry is the snapshot of a node's statistics stored for a position.
type Entry struct {
	Visits    int64
	ValueSum  float64
}

// Stats is the minimal interface the table needs from a search node —
// kept deliberately narrow (no dependency on the node package) so tt has
// no import cycle with it.
type Stats interface {
	VisitsAndValueSum() (visits int64, valueSum float64)
	AdoptStats(visits int64, valueSum float64)
}

type shard struct {
	mu      sync.Mutex
	entries map[key]Entry
}

// Table is a fixed-capacity, sharded, thread-safe transposition table.
// Entries are overwritten on collision; there is no chaining and no
// eviction policy beyond "replace whatever's there" once a shard grows
// past its per-shard budget.
type Table struct {
	shards      [numShards]*shard
	perShardCap int
}

// New builds a table sized to hold roughly capacity entries in total,
// spread across shards so concurrent workers rarely contend on the same
// mutex.
func New(capacity int) *Table {
	if capacity <= 0 {
		capacity = 1
	}
	perShard := capacity/numShards + 1
	t := &Table{perShardCap: perShard}
	for i := range t.shards {
		t.shards[i] = &shard{entries: make(map[key]Entry, perShard)}
	}
	return t
}

func (t *Table) shardFor(k key) *shard {
	return t.shards[k.hash%uint64(numShards)]
}

// Sync adopts the table's statistics into node if the table holds a
// strictly larger visit count, per SPEC_FULL.md §4.7.
func (t *Table) Sync(hash uint64, komi float64, node Stats) {
	k := key{hash: hash, komi: komi}
	s := t.shardFor(k)
	s.mu.Lock()
	entry, ok := s.entries[k]
	s.mu.Unlock()
	if !ok {
		return
	}
	visits, _ := node.VisitsAndValueSum()
	if entry.Visits > visits {
		node.AdoptStats(entry.Visits, entry.ValueSum)
	}
}

// Update stores node's current statistics under (hash, komi), replacing
// whatever was there.
func (t *Table) Update(hash uint64, komi float64, node Stats) {
	k := key{hash: hash, komi: komi}
	s := t.shardFor(k)
	visits, valueSum := node.VisitsAndValueSum()

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) >= t.perShardCap {
		if _, exists := s.entries[k]; !exists {
			// Shard is full and this is a new key: overwrite an
			// arbitrary existing entry rather than growing unboundedly.
			// The table is an optimisation, so losing it is harmless.
			for old := range s.entries {
				delete(s.entries, old)
				break
			}
		}
	}
	s.entries[k] = Entry{Visits: visits, ValueSum: valueSum}
}

// Len returns the total number of entries currently stored, for tests
// and diagnostics.
func (t *Table) Len() int {
	n := 0
	for _, s := range t.shards {
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}
