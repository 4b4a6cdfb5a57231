package engine

import "sync"

// resultsGuard serializes writes into the shared per-layer results map from
// concurrent install goroutines.
type resultsGuard struct {
	mu sync.Mutex
}

func (g *resultsGuard) set(results map[string]Result, name string, res Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	results[name] = res
}
