// Package nvm drives an on-chip non-volatile memory array (MRAM or flash)
// that is mapped into the processor's address space.
//
// Reads copy straight out of the mapping. Writes and erases go through the
// vendor program/fill primitive: at most one is in flight per Device, and a
// write runs with interrupts masked because the core may be fetching
// instructions from the very array being programmed.
//
// The driver does no wear leveling, bad-block handling or retrying; a failed
// primitive status is returned to the caller verbatim.
package nvm
