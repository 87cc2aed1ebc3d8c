// Package quadstore is the façade spec §4.5 describes: one object
// coordinating the atom store, the B+Tree quad index, and the WAL
// behind a single reader-writer lock, exposing the bitemporal
// add/delete/query surface and the batch API.
package quadstore
