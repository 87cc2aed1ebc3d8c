// Package binding implements the shared-column variable binding row
// spec §3 describes: two caller-owned buffers (a fixed-size descriptor
// array and a character arena) plus an "active prefix length" cursor
// into the descriptors, instead of a map[string]Value per row.
package binding
