package loom

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	reflectutil "github.com/danpasecinic/loom/internal/reflect"
)

type GraphInfo struct {
	Components []ComponentInfo
}

type ComponentInfo struct {
	Name          string
	Type          string
	Scope         string
	References    []string
	Dependents    []string
	Aliases       []string
	InitMethod    string
	DestroyMethod string
	Instantiated  bool
	Disposable    bool
}

// Describe reports every registered definition and ready-made singleton in
// registration order.
func (c *Container) Describe() GraphInfo {
	graph := c.internal.Graph()
	disposable := make(map[string]bool)
	for _, name := range c.internal.DisposalNames() {
		disposable[name] = true
	}

	names := graph.Nodes()
	components := make([]ComponentInfo, 0, len(names))
	for _, name := range names {
		info := ComponentInfo{
			Name:         name,
			References:   graph.References(name),
			Dependents:   graph.Dependents(name),
			Aliases:      c.internal.Aliases(name),
			Instantiated: c.internal.IsInstantiated(name),
			Disposable:   disposable[name],
		}

		if def, err := c.internal.Definition(name); err == nil {
			info.Type = reflectutil.TypeKeyOf(def.Type)
			info.Scope = def.Scope.String()
			info.InitMethod = def.InitMethod
			info.DestroyMethod = def.DestroyMethod
		} else if obj, ok := c.internal.Singleton(name); ok {
			info.Type = reflectutil.TypeKeyFromValue(obj)
			info.Scope = Singleton.String()
		}

		components = append(components, info)
	}

	return GraphInfo{Components: components}
}

func (c *Container) PrintGraph() {
	c.FprintGraph(os.Stdout)
}

func (c *Container) FprintGraph(w io.Writer) {
	info := c.Describe()

	if len(info.Components) == 0 {
		_, _ = fmt.Fprintln(w, "(empty container)")
		return
	}

	for _, comp := range info.Components {
		status := "○"
		if comp.Instantiated {
			status = "●"
		}

		if len(comp.References) == 0 {
			_, _ = fmt.Fprintf(w, "%s %s\n", status, comp.Name)
		} else {
			_, _ = fmt.Fprintf(w, "%s %s ← %s\n", status, comp.Name, strings.Join(comp.References, ", "))
		}
	}
}

func (c *Container) SprintGraph() string {
	var sb strings.Builder
	c.FprintGraph(&sb)
	return sb.String()
}

func (c *Container) FprintGraphDOT(w io.Writer) {
	info := c.Describe()

	_, _ = fmt.Fprintln(w, "digraph components {")
	_, _ = fmt.Fprintln(w, "  rankdir=LR;")
	_, _ = fmt.Fprintln(w, "  node [shape=box];")

	for _, comp := range info.Components {
		style := ""
		if comp.Instantiated {
			style = ", style=filled, fillcolor=lightblue"
		}
		_, _ = fmt.Fprintf(w, "  %q [label=%q%s];\n", comp.Name, comp.Name+"\n"+shortType(comp.Type), style)
	}

	_, _ = fmt.Fprintln(w)

	for _, comp := range info.Components {
		for _, ref := range comp.References {
			_, _ = fmt.Fprintf(w, "  %q -> %q;\n", comp.Name, ref)
		}
	}

	_, _ = fmt.Fprintln(w, "}")
}

func (c *Container) SprintGraphDOT() string {
	var sb strings.Builder
	c.FprintGraphDOT(&sb)
	return sb.String()
}

// FprintTable writes one row per component with its type, scope, lifecycle
// methods and state.
func (c *Container) FprintTable(w io.Writer) {
	info := c.Describe()

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Type", "Scope", "References", "Init", "Destroy", "State"})

	for _, comp := range info.Components {
		state := "defined"
		switch {
		case comp.Instantiated && comp.Disposable:
			state = "built, disposable"
		case comp.Instantiated:
			state = "built"
		}
		t.AppendRow(table.Row{
			comp.Name,
			shortType(comp.Type),
			comp.Scope,
			strings.Join(comp.References, ", "),
			comp.InitMethod,
			comp.DestroyMethod,
			state,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "Total", len(info.Components)})
	t.Render()
}

func shortType(s string) string {
	ptr := strings.HasPrefix(s, "*")
	s = strings.TrimPrefix(s, "*")
	if idx := strings.LastIndex(s, "/"); idx != -1 {
		s = s[idx+1:]
	}
	if ptr {
		return "*" + s
	}
	return s
}
