//go:build !flowpool_debug

package flowpool

const debugging = false

func assert(bool, string) {}
