// ════════════════════════════════════════════════════════════════════════════════════════════════
// ⚡ BACKTRACKABLE OPEN-ADDRESSING TABLE
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Fixed-Capacity uint32 → reference map
//
// Description:
//   Linear-probing table specialized for the cycle search: ordinary insert, replace-and-
//   return-old, and O(1) undo of the most recent insert. Undo leaves no tombstone, which
//   is only sound while inserts and undos follow strict LIFO order.
//
// Design Principles:
//   - Capacity is the next power of two above the declared size, so one slot stays empty
//     and every probe terminates
//   - Parallel arrays for keys and values, as in the per-core local index
//   - Value 0 is the empty sentinel; callers store 1-based references
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package hashtable

import (
	"errors"

	"cuckminer/utils"
)

// ErrAlloc reports that the backing arrays could not be obtained.
var ErrAlloc = errors.New("hashtable: allocation failed")

// Table maps uint32 keys to non-zero uint32 references.
type Table struct {
	keys  []uint32 // key array (meaningful only where vals != 0)
	vals  []uint32 // reference array, 0 = empty
	mask  uint32   // capacity-1
	used  uint32   // occupied slots
	trail []uint32 // insert order, kept only when assertLIFO
}

// New creates a table able to hold size entries. The capacity is the next
// power of two ≥ size+1.
func New(size int) (t *Table, err error) {
	if size < 0 {
		return nil, ErrAlloc
	}
	capacity := utils.NextPow2(size + 1)
	if uint64(capacity) > 1<<31 {
		return nil, ErrAlloc
	}
	defer func() {
		if recover() != nil {
			t, err = nil, ErrAlloc
		}
	}()
	t = &Table{
		keys: make([]uint32, capacity),
		vals: make([]uint32, capacity),
		mask: uint32(capacity - 1),
	}
	if assertLIFO {
		t.trail = make([]uint32, 0, capacity)
	}
	return t, nil
}

// Cap returns the physical slot count.
//
//go:nosplit
//go:inline
func (t *Table) Cap() int { return len(t.vals) }

// Len returns the number of occupied slots.
//
//go:nosplit
//go:inline
func (t *Table) Len() int { return int(t.used) }

// InsertUnique stores (key, ref) in the first empty slot of key's probe
// sequence and returns that slot. The caller guarantees key is absent.
//
//go:norace
//go:nocheckptr
//go:inline
func (t *Table) InsertUnique(key, ref uint32) uint32 {
	i := key & t.mask
	for t.vals[i] != 0 {
		i = (i + 1) & t.mask
	}
	t.keys[i], t.vals[i] = key, ref
	t.used++
	if assertLIFO {
		t.trail = append(t.trail, i)
	}
	return i
}

// Replace overwrites the value of key and returns the previous one, or
// inserts (key, ref) and returns 0 when key was absent.
//
//go:norace
//go:nocheckptr
//go:inline
func (t *Table) Replace(key, ref uint32) uint32 {
	i := key & t.mask
	for {
		v := t.vals[i]
		if v == 0 {
			t.keys[i], t.vals[i] = key, ref
			t.used++
			if assertLIFO {
				t.trail = append(t.trail, i)
			}
			return 0
		}
		if t.keys[i] == key {
			t.vals[i] = ref
			return v
		}
		i = (i + 1) & t.mask
	}
}

// UndoInsertAt empties slot, which must be the most recent live insert.
// Out-of-order undo silently corrupts later lookups; builds with the
// cuckdebug tag panic instead.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func (t *Table) UndoInsertAt(slot uint32) {
	if assertLIFO {
		t.checkUndo(slot)
	}
	t.vals[slot] = 0
	t.used--
}

// Get returns the reference stored for key.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func (t *Table) Get(key uint32) (uint32, bool) {
	i := key & t.mask
	for {
		v := t.vals[i]
		if v == 0 {
			return 0, false
		}
		if t.keys[i] == key {
			return v, true
		}
		i = (i + 1) & t.mask
	}
}

// Contains reports whether key is present.
//
//go:nosplit
//go:inline
func (t *Table) Contains(key uint32) bool {
	_, ok := t.Get(key)
	return ok
}

// CollectValues writes every occupied slot's reference into out, in slot
// order, and returns how many were written. out must hold Len() entries.
func (t *Table) CollectValues(out []uint32) int {
	n := 0
	for _, v := range t.vals {
		if v != 0 {
			out[n] = v
			n++
		}
	}
	return n
}

// Clear empties every slot. O(capacity).
func (t *Table) Clear() {
	clear(t.vals)
	t.used = 0
	if assertLIFO {
		t.trail = t.trail[:0]
	}
}
