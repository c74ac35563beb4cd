//go:build flowpool_debug

package flowpool

import "testing"

func TestInvariantAssertions(t *testing.T) {
	t.Parallel()
	pool, err := New[int](PolicyFunc[int](func(int) {}), 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := pool.Insert("A", 1); err != nil {
		t.Fatal(err)
	}
	if err := pool.Insert("B", 2); err != nil {
		t.Fatal(err)
	}
	pool.locator["A"] = 1
	defer func() {
		if recover() == nil {
			t.Fatal("expected a desynchronized locator to trip an assertion")
		}
	}()
	pool.Remove("B")
}
