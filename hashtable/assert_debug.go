//go:build cuckdebug

package hashtable

import "cuckminer/utils"

const assertLIFO = true

// checkUndo panics unless slot is the newest insert still live.
func (t *Table) checkUndo(slot uint32) {
	n := len(t.trail)
	if n == 0 || t.trail[n-1] != slot {
		panic("hashtable: undo of slot " + utils.Itoa(int(slot)) + " out of LIFO order")
	}
	t.trail = t.trail[:n-1]
}
