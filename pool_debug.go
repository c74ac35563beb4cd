//go:build flowpool_debug

package flowpool

const debugging = true

func assert(cond bool, message string) {
	if !cond {
		panic(message)
	}
}
