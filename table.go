// table.go: the open-addressed hash table that backs one side of the
// blue-green tracker.
//
// A table is single-owner: only the goroutine holding the Tracker's lock
// during a phase-dependent operation may mutate it. It never blocks and
// never allocates on the hot path beyond what an individual insert needs.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package flowsession

// InsertResult is the outcome of a Table or Tracker insert.
type InsertResult int

const (
	// Inserted means a brand-new row was claimed for the key.
	Inserted InsertResult = iota
	// Updated means an existing row for the key was overwritten; the
	// previous payload was handed to the destructor exactly once.
	Updated
	// Full means the table's load ceiling was already exceeded
	// (inserted > maxInserts when the call began); the caller should drop
	// the session or wait for the next refresh cycle to scale capacity up.
	Full
	// Invalid means the payload was nil, or the probe exhausted the
	// table without finding an insertable slot. The latter case is
	// unreachable while invariant 2 (inserted <= maxInserts <= capacity)
	// holds; it exists purely as a defensive sentinel.
	Invalid
)

func (r InsertResult) String() string {
	switch r {
	case Inserted:
		return "Inserted"
	case Updated:
		return "Updated"
	case Full:
		return "Full"
	case Invalid:
		return "Invalid"
	default:
		return "Unknown"
	}
}

type rowState uint8

const (
	rowEmpty rowState = iota
	rowOccupied
	rowTombstone
)

type row struct {
	state   rowState
	key     Key
	payload interface{}
}

// table is the fixed-size open-addressed array described in §4.A. It owns
// its rows and, transitively, any payload it holds until that payload is
// evicted, moved to another table, or the table is destroyed.
type table struct {
	rows       []row
	numRows    uint64
	inserted   uint64
	collisions uint64
	maxInserts uint64

	// healCollisions enables the optional "collision healing" step: when a
	// lookup resolves a key through a tombstone, move the row one slot
	// closer to its home to shorten future probe chains. Off by default
	// is also a valid reading of the specification; this implementation
	// defaults it on, matching the original reference behavior, as long
	// as invariant 1 (probe chains stay reachable) holds — healing only
	// ever moves a row backward through a tombstone, never through an
	// Empty slot.
	healCollisions bool

	destroy func(interface{})
}

func newTable(numRows, maxInserts uint64, destroy func(interface{})) *table {
	return &table{
		rows:           make([]row, numRows),
		numRows:        numRows,
		maxInserts:     maxInserts,
		healCollisions: true,
		destroy:        destroy,
	}
}

// destroyAll runs the destructor over every occupied row. Used by the
// refresh worker when retiring a table and by Tracker teardown.
func (t *table) destroyAll() {
	if t.destroy == nil {
		return
	}
	for i := range t.rows {
		if t.rows[i].state == rowOccupied {
			t.destroy(t.rows[i].payload)
			t.rows[i].payload = nil
			t.rows[i].state = rowTombstone
		}
	}
}

// probeForWrite walks the probe chain used by insert and delete. It
// credits the collisions counter only for the probe that resolves to an
// insertable slot (a brand-new placement, into the first tombstone on the
// chain or else the Empty slot that ends it) — not for probes that land on an
// already-occupied match, so repeated lookups of an already-placed key
// never inflate the counter.
//
// Returns the resolved index and whether that index currently holds a
// live key match. ok is false only in the defensive, invariant-violating
// case where the whole table was probed without finding either a match
// or an insertable slot.
func (t *table) probeForWrite(key Key) (idx int, isMatch bool, ok bool) {
	start := int(key.hash(t.numRows))
	r := &t.rows[start]

	if r.state == rowEmpty || (r.state == rowOccupied && key.Equal(r.key)) {
		return start, r.state == rowOccupied, true
	}

	// firstFree is the first tombstone on the chain: when the key is not
	// found further on, a new placement reuses that slot.
	firstFree, freeSteps := -1, uint64(0)
	if r.state == rowTombstone {
		firstFree = start
	}

	var steps uint64
	i := start + 1
	if i >= int(t.numRows) {
		i = 0
	}
	for i != start {
		steps++
		r := &t.rows[i]

		if r.state == rowOccupied && key.Equal(r.key) {
			if t.healCollisions {
				i = t.heal(i)
			}
			return i, true, true
		}

		if r.state == rowEmpty {
			break
		}
		if r.state == rowTombstone && firstFree < 0 {
			firstFree, freeSteps = i, steps
		}

		i++
		if i >= int(t.numRows) {
			i = 0
		}
	}

	if firstFree >= 0 {
		t.collisions += freeSteps
		return firstFree, false, true
	}
	if i != start {
		t.collisions += steps
		return i, false, true
	}
	return -1, false, false
}

// probeForRead mirrors probeForWrite but never adds to the collisions
// counter (only heal, when it moves a row, lowers it): it is used by
// Lookup, which runs far more often than Insert or Delete and must not
// make every repeated read of a colliding key look like a fresh collision.
func (t *table) probeForRead(key Key) (idx int, found bool) {
	start := int(key.hash(t.numRows))
	r := &t.rows[start]

	if r.state == rowOccupied && key.Equal(r.key) {
		return start, true
	}
	if r.state == rowEmpty {
		return start, false
	}

	i := start + 1
	if i >= int(t.numRows) {
		i = 0
	}
	for i != start {
		r := &t.rows[i]

		if r.state == rowOccupied && key.Equal(r.key) {
			if t.healCollisions {
				i = t.heal(i)
			}
			return i, true
		}

		if r.state == rowEmpty {
			return i, false
		}

		i++
		if i >= int(t.numRows) {
			i = 0
		}
	}

	return -1, false
}

// heal implements the optional collision-healing step: if the slot
// immediately before idx is a tombstone, move idx's row backward into it.
// Moving backward through a tombstone is always safe — the tombstone was
// reachable by the same probe chain idx is on, so nothing downstream of
// idx loses reachability. Moving through an Empty slot would be unsafe
// (it would break the backward-reachability invariant for other keys
// further down the chain) and is never attempted.
func (t *table) heal(idx int) int {
	if idx == 0 {
		return idx
	}
	prev := idx - 1
	if t.rows[prev].state != rowTombstone {
		return idx
	}
	t.rows[prev].state = rowOccupied
	t.rows[prev].key = t.rows[idx].key
	t.rows[prev].payload = t.rows[idx].payload
	t.rows[idx].state = rowTombstone
	t.rows[idx].payload = nil
	if t.collisions > 0 {
		t.collisions--
	}
	return prev
}

// insert stores payload under key. See InsertResult for the possible
// outcomes.
func (t *table) insert(key Key, payload interface{}) InsertResult {
	if payload == nil {
		return Invalid
	}
	if t.inserted > t.maxInserts {
		return Full
	}

	idx, isMatch, ok := t.probeForWrite(key)
	if !ok {
		return Invalid
	}

	r := &t.rows[idx]
	if isMatch {
		if t.destroy != nil {
			t.destroy(r.payload)
		}
		r.payload = payload
		return Updated
	}

	r.state = rowOccupied
	r.key = key
	r.payload = payload
	t.inserted++
	return Inserted
}

// lookup returns the payload stored for key, if any.
func (t *table) lookup(key Key) (interface{}, bool) {
	idx, found := t.probeForRead(key)
	if !found {
		return nil, false
	}
	return t.rows[idx].payload, true
}

// delete removes the binding for key, if any, invoking the destructor on
// the removed payload. It never converts the slot to Empty — doing so
// would truncate probe chains that pass through this slot for other,
// still-live keys.
func (t *table) delete(key Key) {
	idx, isMatch, ok := t.probeForWrite(key)
	if !ok || !isMatch {
		return
	}
	r := &t.rows[idx]
	if t.destroy != nil {
		t.destroy(r.payload)
	}
	r.payload = nil
	r.state = rowTombstone
	t.inserted--
}

// take removes the binding for key without invoking the destructor,
// returning the payload so the caller (the migration policy in tracker.go)
// can transfer ownership into another table.
func (t *table) take(key Key) (interface{}, bool) {
	idx, isMatch, ok := t.probeForWrite(key)
	if !ok || !isMatch {
		return nil, false
	}
	r := &t.rows[idx]
	payload := r.payload
	r.payload = nil
	r.state = rowTombstone
	t.inserted--
	return payload, true
}
