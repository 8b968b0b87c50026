// Package graph models the reference edges between component definitions.
package graph

import (
	"slices"
	"sync"
)

type Node struct {
	Name       string
	References []string
}

type Graph struct {
	mu    sync.RWMutex
	order []string
	nodes map[string]*Node
}

func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
	}
}

// AddNode records name and the components it references. Adding a name again
// replaces its references but keeps its original position.
func (g *Graph) AddNode(name string, references []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.nodes[name]; !exists {
		g.order = append(g.order, name)
	}
	g.nodes[name] = &Node{
		Name:       name,
		References: slices.Clone(references),
	}
}

func (g *Graph) HasNode(name string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, exists := g.nodes[name]
	return exists
}

func (g *Graph) References(name string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, exists := g.nodes[name]
	if !exists {
		return nil
	}
	return slices.Clone(node.References)
}

// Dependents lists the nodes that reference name, in insertion order.
func (g *Graph) Dependents(name string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var dependents []string
	for _, id := range g.order {
		if slices.Contains(g.nodes[id].References, name) {
			dependents = append(dependents, id)
		}
	}
	return dependents
}

func (g *Graph) Nodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return slices.Clone(g.order)
}

func (g *Graph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.nodes)
}

// Missing lists referenced names that have no node, each once, in the order
// they are first encountered.
func (g *Graph) Missing() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var missing []string
	for _, id := range g.order {
		for _, ref := range g.nodes[id].References {
			if _, exists := g.nodes[ref]; !exists && !slices.Contains(missing, ref) {
				missing = append(missing, ref)
			}
		}
	}
	return missing
}
