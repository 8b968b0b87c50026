package graph

type cycleDetector struct {
	graph   *Graph
	index   int
	stack   []string
	onStack map[string]bool
	indices map[string]int
	lowlink map[string]int
	sccs    [][]string
}

// Cycles returns the strongly connected components that form reference
// cycles, including self references.
func (g *Graph) Cycles() [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.cyclesLocked()
}

func (g *Graph) cyclesLocked() [][]string {
	d := &cycleDetector{
		graph:   g,
		onStack: make(map[string]bool),
		indices: make(map[string]int),
		lowlink: make(map[string]int),
	}

	for _, name := range g.order {
		if _, visited := d.indices[name]; !visited {
			d.strongConnect(name)
		}
	}

	var cycles [][]string
	for _, scc := range d.sccs {
		switch {
		case len(scc) > 1:
			cycles = append(cycles, scc)
		case len(scc) == 1:
			for _, ref := range g.nodes[scc[0]].References {
				if ref == scc[0] {
					cycles = append(cycles, scc)
					break
				}
			}
		}
	}
	return cycles
}

func (d *cycleDetector) strongConnect(name string) {
	d.indices[name] = d.index
	d.lowlink[name] = d.index
	d.index++
	d.stack = append(d.stack, name)
	d.onStack[name] = true

	for _, ref := range d.graph.nodes[name].References {
		if _, exists := d.graph.nodes[ref]; !exists {
			continue
		}

		if _, visited := d.indices[ref]; !visited {
			d.strongConnect(ref)
			d.lowlink[name] = min(d.lowlink[name], d.lowlink[ref])
		} else if d.onStack[ref] {
			d.lowlink[name] = min(d.lowlink[name], d.indices[ref])
		}
	}

	if d.lowlink[name] == d.indices[name] {
		var scc []string
		for {
			n := len(d.stack) - 1
			w := d.stack[n]
			d.stack = d.stack[:n]
			d.onStack[w] = false
			scc = append(scc, w)
			if w == name {
				break
			}
		}
		d.sccs = append(d.sccs, scc)
	}
}

// cyclePathLocked walks from start and returns the first cycle reached,
// closed with its first node repeated, or nil.
func (g *Graph) cyclePathLocked(start string) []string {
	visited := make(map[string]bool)
	inPath := make(map[string]bool)
	var path []string

	var dfs func(name string) []string
	dfs = func(name string) []string {
		if inPath[name] {
			var cycle []string
			found := false
			for _, p := range path {
				if p == name {
					found = true
				}
				if found {
					cycle = append(cycle, p)
				}
			}
			return append(cycle, name)
		}
		if visited[name] {
			return nil
		}

		visited[name] = true
		path = append(path, name)
		inPath[name] = true

		node, exists := g.nodes[name]
		if exists {
			for _, ref := range node.References {
				if _, ok := g.nodes[ref]; !ok {
					continue
				}
				if cycle := dfs(ref); cycle != nil {
					return cycle
				}
			}
		}

		path = path[:len(path)-1]
		inPath[name] = false
		return nil
	}

	return dfs(start)
}

// CyclePaths returns one closed path per cycle.
func (g *Graph) CyclePaths() [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var paths [][]string
	for _, scc := range g.cyclesLocked() {
		if path := g.cyclePathLocked(scc[len(scc)-1]); path != nil {
			paths = append(paths, path)
		}
	}
	return paths
}
