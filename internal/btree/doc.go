// Package btree is documented at the top of key.go; this file records
// the inner-node routing convention used by tree.go and page.go.
//
// An inner page holds n separator keys s_0 < s_1 < ... < s_{n-1} and
// n+1 children c_0..c_n. Child c_i owns the half-open key range
// [s_{i-1}, s_i) (s_{-1} = -infinity, s_n = +infinity). The page
// stores entries[i] = (s_i, c_i) for i in 0..n-1, and c_n separately
// as "rightmost". Splitting a child whose range was bounded above by
// some s_i replaces entries[i].Child with the new upper sibling and
// inserts (newSeparator, oldChild) immediately before it; splitting
// the rightmost child instead appends (newSeparator, oldRightmost)
// and replaces rightmost with the new sibling.
package btree
