package main

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/nginfra/movici-geo-query/pkg/geometry"
	"github.com/nginfra/movici-geo-query/pkg/query"
)

// Number of query batches per family; each completed batch advances the
// progress bar one step.
const benchChunks = 50

type benchStage int

const (
	stageBuild benchStage = iota
	stageNearest
	stageWithin
	stageIntersects
	stageDone
)

func (s benchStage) label() string {
	switch s {
	case stageBuild:
		return fmt.Sprintf("Building index over %d targets...", numTargets)
	case stageNearest:
		return fmt.Sprintf("Running %d nearest queries...", numQueries)
	case stageWithin:
		return fmt.Sprintf("Running %d within-distance(%.2f) queries...", numQueries, radius)
	case stageIntersects:
		return fmt.Sprintf("Running %d intersects queries...", numQueries)
	}
	return ""
}

type buildStats struct {
	targets  int
	duration time.Duration
}

type queryStats struct {
	name          string
	queries       int
	matches       int
	duration      time.Duration
	queriesPerSec float64
}

type progressMsg float64
type buildDoneMsg buildStats
type queryDoneMsg queryStats
type benchErrMsg struct{ err error }

type benchModel struct {
	stage    benchStage
	spinner  spinner.Model
	progress progress.Model
	percent  float64

	build   buildStats
	results []queryStats
	err     error
}

var program *tea.Program

func newBenchModel() benchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF79C6"))

	return benchModel{
		stage:    stageBuild,
		spinner:  s,
		progress: progress.New(progress.WithDefaultGradient()),
	}
}

func (m benchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, startBench)
}

func startBench() tea.Msg {
	go executeBench()
	return nil
}

func (m benchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.progress.Width = msg.Width - 10
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		m.percent = float64(msg)
		return m, m.progress.SetPercent(float64(msg))

	case buildDoneMsg:
		m.build = buildStats(msg)
		m.stage = stageNearest
		m.percent = 0
		return m, m.progress.SetPercent(0)

	case queryDoneMsg:
		m.results = append(m.results, queryStats(msg))
		m.stage++
		m.percent = 0
		if m.stage >= stageDone {
			return m, tea.Quit
		}
		return m, m.progress.SetPercent(0)

	case benchErrMsg:
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

func (m benchModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("🌍 Geo Query Benchmark"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("✗ " + m.err.Error()))
		b.WriteString("\n")
		return b.String()
	}

	if m.build.targets > 0 {
		b.WriteString(renderBuildStats(m.build))
		b.WriteString("\n")
	}
	for _, stats := range m.results {
		b.WriteString(renderQueryStats(stats))
		b.WriteString("\n")
	}

	if m.stage < stageDone {
		b.WriteString(m.spinner.View() + " " + m.stage.label())
		b.WriteString("\n\n")
		b.WriteString(m.progress.ViewAs(m.percent))
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("Press 'q' to quit"))
	} else {
		b.WriteString(successStyle.Render("🎉 Benchmark complete!"))
	}
	b.WriteString("\n")

	return b.String()
}

func renderBuildStats(stats buildStats) string {
	content := fmt.Sprintf(
		"✓ Indexed %s targets in %s\n"+
			"✓ Targets per second: %s",
		statStyle.Render(fmt.Sprintf("%d", stats.targets)),
		statStyle.Render(stats.duration.String()),
		statStyle.Render(fmt.Sprintf("%.0f", float64(stats.targets)/stats.duration.Seconds())),
	)
	return boxStyle.Render(subtitleStyle.Render("Index Build\n\n") + content)
}

func renderQueryStats(stats queryStats) string {
	content := fmt.Sprintf(
		"✓ Queries: %s\n"+
			"✓ Total time: %s\n"+
			"✓ Queries per second: %s\n"+
			"✓ Total matches: %s",
		statStyle.Render(fmt.Sprintf("%d", stats.queries)),
		statStyle.Render(stats.duration.String()),
		statStyle.Render(fmt.Sprintf("%.0f", stats.queriesPerSec)),
		statStyle.Render(fmt.Sprintf("%d", stats.matches)),
	)
	return boxStyle.Render(subtitleStyle.Render(stats.name + "\n\n") + content)
}

// benchData carries the generated collections and engine results out of
// the TUI run for the optional PostGIS cross-check.
type benchData struct {
	targets       *geometry.Collection
	queries       *geometry.Collection
	withinMatches int
}

var bench benchData

func runBench(cmd *cobra.Command, args []string) {
	rng := rand.New(rand.NewSource(seed))

	targets, err := geometry.NewPoints(randomCoords(rng, numTargets))
	if err != nil {
		log.Fatalf("Failed to build target collection: %v", err)
	}
	queries, err := geometry.NewPoints(randomCoords(rng, numQueries))
	if err != nil {
		log.Fatalf("Failed to build query collection: %v", err)
	}
	bench = benchData{targets: targets, queries: queries}

	program = tea.NewProgram(newBenchModel())
	finalModel, err := program.Run()
	if err != nil {
		log.Fatalf("Benchmark UI failed: %v", err)
	}
	if m, ok := finalModel.(benchModel); ok && m.err != nil {
		log.Fatalf("Benchmark failed: %v", m.err)
	}

	if usePostgis {
		crossCheck(bench.targets, bench.queries, bench.withinMatches)
	}
}

// executeBench runs on its own goroutine and reports to the TUI through
// program.Send.
func executeBench() {
	start := time.Now()
	engine, err := query.New(bench.targets)
	if err != nil {
		program.Send(benchErrMsg{err})
		return
	}
	program.Send(buildDoneMsg{targets: bench.targets.Len(), duration: time.Since(start)})

	families := []struct {
		name string
		run  func(chunk *geometry.Collection) (int, error)
	}{
		{"Nearest", func(chunk *geometry.Collection) (int, error) {
			rv, err := engine.Nearest(chunk)
			if err != nil {
				return 0, err
			}
			return rv.Len(), nil
		}},
		{fmt.Sprintf("WithinDistance(%.2f)", radius), func(chunk *geometry.Collection) (int, error) {
			rv, err := engine.WithinDistance(chunk, radius)
			if err != nil {
				return 0, err
			}
			return len(rv.Indices), nil
		}},
		{"Intersects", func(chunk *geometry.Collection) (int, error) {
			rv, err := engine.Intersects(chunk)
			if err != nil {
				return 0, err
			}
			return len(rv.Indices), nil
		}},
	}

	for i, family := range families {
		stats, err := runQueryFamily(family.name, family.run)
		if err != nil {
			program.Send(benchErrMsg{err})
			return
		}
		if i == 1 {
			bench.withinMatches = stats.matches
		}
		program.Send(queryDoneMsg(stats))
	}
}

// runQueryFamily feeds the query collection through in batches so the
// progress bar advances while the family runs.
func runQueryFamily(name string, run func(chunk *geometry.Collection) (int, error)) (queryStats, error) {
	nq := bench.queries.Len()
	chunkSize := (nq + benchChunks - 1) / benchChunks
	if chunkSize < 1 {
		chunkSize = 1
	}

	matches := 0
	start := time.Now()
	for offset := 0; offset < nq; offset += chunkSize {
		end := offset + chunkSize
		if end > nq {
			end = nq
		}
		coords := make([][]float64, 0, end-offset)
		for i := offset; i < end; i++ {
			row := bench.queries.Row(i)
			coords = append(coords, []float64{row[0].X, row[0].Y})
		}
		chunk, err := geometry.NewPoints(coords)
		if err != nil {
			return queryStats{}, err
		}
		n, err := run(chunk)
		if err != nil {
			return queryStats{}, err
		}
		matches += n
		program.Send(progressMsg(float64(end) / float64(nq)))
	}
	elapsed := time.Since(start)

	return queryStats{
		name:          name,
		queries:       nq,
		matches:       matches,
		duration:      elapsed,
		queriesPerSec: float64(nq) / elapsed.Seconds(),
	}, nil
}

func randomCoords(rng *rand.Rand, n int) [][]float64 {
	coords := make([][]float64, n)
	for i := range coords {
		coords[i] = []float64{rng.Float64() * 100, rng.Float64() * 100}
	}
	return coords
}
