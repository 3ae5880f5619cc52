package schema

import (
	"errors"
	"fmt"
)

// ErrCycle is returned when the child-table graph contains a cycle.
var ErrCycle = errors.New("child table cycle")

// CycleError lists the path that closes a cycle, starting and ending at the same node.
type CycleError[K comparable] struct {
	Path []K
}

func (e *CycleError[K]) Error() string {
	return fmt.Sprintf("%v: %v", ErrCycle, e.Path)
}

func (e *CycleError[K]) Unwrap() error {
	return ErrCycle
}

// Plan orders roots and everything reachable through children so that every
// node follows its whole child subtree. Children are visited in the order
// children returns them and each node appears once.
func Plan[K comparable](roots []K, children func(K) []K) ([]K, error) {
	const (
		visiting = iota + 1
		done
	)
	state := make(map[K]int)
	var (
		order []K
		stack []K
	)

	var visit func(K) error
	visit = func(k K) error {
		switch state[k] {
		case done:
			return nil
		case visiting:
			start := 0
			for i, s := range stack {
				if s == k {
					start = i
					break
				}
			}
			path := append(append([]K(nil), stack[start:]...), k)
			return &CycleError[K]{Path: path}
		}

		state[k] = visiting
		stack = append(stack, k)
		for _, c := range children(k) {
			if err := visit(c); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[k] = done
		order = append(order, k)
		return nil
	}

	for _, r := range roots {
		if err := visit(r); err != nil {
			return nil, err
		}
	}
	return order, nil
}
