package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type BenchmarkResult struct {
	Name       string  `json:"name"`
	Framework  string  `json:"framework"`
	Category   string  `json:"category"`
	Scenario   string  `json:"scenario"`
	Iterations int64   `json:"iterations"`
	NsPerOp    float64 `json:"nsPerOp"`
	BytesPerOp int64   `json:"bytesPerOp"`
	AllocsOp   int64   `json:"allocsPerOp"`
}

type CategoryResults struct {
	Category string
	Results  []BenchmarkResult
}

var frameworkColors = map[string]text.Colors{
	"Loom": {text.FgGreen, text.Bold},
	"Do":   {text.FgYellow},
	"Dig":  {text.FgMagenta},
	"Fx":   {text.FgBlue},
}

var categoryOrder = []string{
	"Register_Simple", "Register_Chain",
	"Get_Singleton", "Get_Chain", "Get_NonShared",
	"Named_10",
	"Lifecycle_10", "Lifecycle_50",
	"LifecycleWithWork_10",
}

var categoryTitles = map[string]string{
	"Register_Simple":      "Registration (Simple)",
	"Register_Chain":       "Registration (Dependency Chain)",
	"Get_Singleton":        "Lookup (Singleton)",
	"Get_Chain":            "Lookup (Dependency Chain)",
	"Get_NonShared":        "Lookup (Non-shared, rebuilt per call)",
	"Named_10":             "Named Components (10 components)",
	"Lifecycle_10":         "Refresh/Destroy (10 components)",
	"Lifecycle_50":         "Refresh/Destroy (50 components)",
	"LifecycleWithWork_10": "Refresh/Destroy with Work (10 components, 1ms each)",
}

func main() {
	fmt.Println(text.Colors{text.Bold, text.FgCyan}.Sprint("Loom Container Benchmark Suite"))
	fmt.Println(text.Faint.Sprint("Running benchmarks..."))
	fmt.Println()

	benchDir := ".."
	exportJSONResults := false
	for _, arg := range os.Args[1:] {
		if arg == "--json" {
			exportJSONResults = true
			continue
		}
		benchDir = arg
	}

	cmd := exec.Command("go", "test", "-bench=.", "-benchmem", "-count=3", "-benchtime=100ms")
	cmd.Dir = benchDir
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "Benchmark failed: %s\n", string(exitErr.Stderr))
		}
		os.Exit(1)
	}

	results := parseResults(output)
	grouped := groupByCategory(results)

	for _, cat := range grouped {
		printCategory(cat)
	}
	printSummary(grouped)

	if exportJSONResults {
		if err := exportJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}
	}
}

func parseResults(output []byte) []BenchmarkResult {
	benchPattern := regexp.MustCompile(`^Benchmark(\w+)-\d+\s+(\d+)\s+([\d.]+) ns/op\s+(\d+) B/op\s+(\d+) allocs/op`)

	seen := make(map[string][]BenchmarkResult)
	var names []string

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		matches := benchPattern.FindStringSubmatch(scanner.Text())
		if matches == nil {
			continue
		}

		name := matches[1]
		iterations, _ := strconv.ParseInt(matches[2], 10, 64)
		nsPerOp, _ := strconv.ParseFloat(matches[3], 64)
		bytesPerOp, _ := strconv.ParseInt(matches[4], 10, 64)
		allocsOp, _ := strconv.ParseInt(matches[5], 10, 64)

		parts := strings.Split(name, "_")
		if len(parts) < 3 {
			continue
		}

		if _, ok := seen[name]; !ok {
			names = append(names, name)
		}
		seen[name] = append(seen[name], BenchmarkResult{
			Name:       name,
			Framework:  parts[len(parts)-1],
			Category:   parts[0],
			Scenario:   strings.Join(parts[1:len(parts)-1], "_"),
			Iterations: iterations,
			NsPerOp:    nsPerOp,
			BytesPerOp: bytesPerOp,
			AllocsOp:   allocsOp,
		})
	}

	results := make([]BenchmarkResult, 0, len(names))
	for _, name := range names {
		runs := seen[name]

		var totalNs float64
		var totalBytes, totalAllocs int64
		for _, r := range runs {
			totalNs += r.NsPerOp
			totalBytes += r.BytesPerOp
			totalAllocs += r.AllocsOp
		}
		count := float64(len(runs))

		avg := runs[0]
		avg.NsPerOp = totalNs / count
		avg.BytesPerOp = int64(float64(totalBytes) / count)
		avg.AllocsOp = int64(float64(totalAllocs) / count)
		results = append(results, avg)
	}
	return results
}

func groupByCategory(results []BenchmarkResult) []CategoryResults {
	groups := make(map[string][]BenchmarkResult)
	for _, r := range results {
		key := r.Category + "_" + r.Scenario
		groups[key] = append(groups[key], r)
	}

	var keys []string
	for _, key := range categoryOrder {
		if _, ok := groups[key]; ok {
			keys = append(keys, key)
		}
	}
	var rest []string
	for key := range groups {
		if !slices.Contains(categoryOrder, key) {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)

	ordered := make([]CategoryResults, 0, len(groups))
	for _, key := range append(keys, rest...) {
		results := groups[key]
		sort.Slice(results, func(i, j int) bool {
			return results[i].NsPerOp < results[j].NsPerOp
		})
		ordered = append(ordered, CategoryResults{Category: key, Results: results})
	}
	return ordered
}

func printCategory(cat CategoryResults) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(formatCategoryTitle(cat.Category))
	t.AppendHeader(table.Row{"Framework", "Time/op", "Bytes/op", "Allocs/op", "Relative"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	fastest := cat.Results[0].NsPerOp
	for i, r := range cat.Results {
		relative := "fastest"
		if i > 0 && fastest > 0 {
			relative = fmt.Sprintf("%.1fx slower", r.NsPerOp/fastest)
		}
		t.AppendRow(table.Row{
			colorize(r.Framework),
			formatNs(r.NsPerOp),
			fmt.Sprintf("%d B", r.BytesPerOp),
			r.AllocsOp,
			relative,
		})
	}

	t.Render()
	fmt.Println()
}

func formatCategoryTitle(cat string) string {
	if title, ok := categoryTitles[cat]; ok {
		return title
	}
	return strings.ReplaceAll(cat, "_", " ")
}

func colorize(framework string) string {
	if colors, ok := frameworkColors[framework]; ok {
		return colors.Sprint(framework)
	}
	return framework
}

func formatNs(ns float64) string {
	if ns >= 1_000_000 {
		return fmt.Sprintf("%.2f ms", ns/1_000_000)
	}
	if ns >= 1_000 {
		return fmt.Sprintf("%.2f µs", ns/1_000)
	}
	return fmt.Sprintf("%.0f ns", ns)
}

func printSummary(groups []CategoryResults) {
	wins := make(map[string]int)
	for _, cat := range groups {
		if len(cat.Results) > 0 {
			wins[cat.Results[0].Framework]++
		}
	}

	frameworks := make([]string, 0, len(wins))
	for name := range wins {
		frameworks = append(frameworks, name)
	}
	sort.Slice(frameworks, func(i, j int) bool {
		if wins[frameworks[i]] != wins[frameworks[j]] {
			return wins[frameworks[i]] > wins[frameworks[j]]
		}
		return frameworks[i] < frameworks[j]
	})

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Summary")
	t.AppendHeader(table.Row{"#", "Framework", "Wins"})
	for i, name := range frameworks {
		t.AppendRow(table.Row{i + 1, colorize(name), fmt.Sprintf("%d/%d", wins[name], len(groups))})
	}
	t.Render()

	fmt.Println()
	fmt.Println(text.Faint.Sprint("Frameworks compared:"))
	fmt.Printf("  %s - This library (github.com/danpasecinic/loom)\n", colorize("Loom"))
	fmt.Printf("  %s - Generics-based DI (github.com/samber/do)\n", colorize("Do"))
	fmt.Printf("  %s - Reflection-based DI (go.uber.org/dig)\n", colorize("Dig"))
	fmt.Printf("  %s - Full application framework (go.uber.org/fx)\n", colorize("Fx"))
	fmt.Println()
}

func exportJSON(results []BenchmarkResult) error {
	data, err := json.MarshalIndent(struct {
		Benchmarks []BenchmarkResult `json:"benchmarks"`
	}{Benchmarks: results}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile("benchmark_results.json", data, 0o644)
}
