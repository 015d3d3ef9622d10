//go:build !cuckdebug

package hashtable

// assertLIFO gates the undo-order check. Constant false lets the compiler
// drop every trail access from release builds.
const assertLIFO = false

func (t *Table) checkUndo(uint32) {}
