package dag

import "fmt"

// Sort returns the transitive closure of items under dependenciesOf, each
// item once and after all of its dependencies (depth-first post-order).
//
// A revisited item that has not been emitted yet closes a cycle. With
// throwOnCycle the sort fails with ErrCycleDetected; otherwise the item is
// treated as already ordered and the partial order is returned.
func Sort[T comparable](items []T, dependenciesOf func(T) []T, throwOnCycle bool) ([]T, error) {
	var sorted []T
	visited := make(map[T]bool)
	emitted := make(map[T]bool)

	var visit func(item T) error
	visit = func(item T) error {
		if visited[item] {
			if throwOnCycle && !emitted[item] {
				return fmt.Errorf("%w at %v", ErrCycleDetected, item)
			}
			return nil
		}
		visited[item] = true

		for _, dep := range dependenciesOf(item) {
			if err := visit(dep); err != nil {
				return err
			}
		}

		sorted = append(sorted, item)
		emitted[item] = true
		return nil
	}

	for _, item := range items {
		if err := visit(item); err != nil {
			return nil, err
		}
	}
	return sorted, nil
}
