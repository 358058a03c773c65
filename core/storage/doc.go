// Package storage holds the local upload tree helpers, the Mirror contract
// for secondary copies, and the error values shared by storage backends.
package storage
