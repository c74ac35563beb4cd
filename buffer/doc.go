// Package buffer provides allocators for the packet handles
// stored in a [flowpool.Pool].
//
// Every [Allocator] is also a [flowpool.Policy],
// so the pool hands evicted handles straight back to
// the allocator that produced them.
// Allocators are not safe for concurrent use;
// callers serialize access the same way they do for the pool.
//
// [flowpool.Pool]: https://pkg.go.dev/github.com/djdv/go-flowpool#Pool
// [flowpool.Policy]: https://pkg.go.dev/github.com/djdv/go-flowpool#Policy
package buffer
