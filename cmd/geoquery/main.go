package main

import (
	"fmt"
	"log"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/nginfra/movici-geo-query/pkg/geometry"
	"github.com/nginfra/movici-geo-query/pkg/postgis"
	"github.com/nginfra/movici-geo-query/pkg/query"
)

var (
	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF79C6")).
			Background(lipgloss.Color("#282A36")).
			Padding(0, 1).
			MarginTop(1).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#8BE9FD"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#50FA7B"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272A4"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#BD93F9")).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)

	statStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFB86C"))
)

var rootCmd = &cobra.Command{
	Use:   "geoquery",
	Short: "Batch spatial query engine over planar 2D geometry",
	Long:  `Builds an R-Tree over a target geometry collection and answers overlaps, intersects, nearest and within-distance queries in batches.`,
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the four query families on a small example",
	Run:   runDemo,
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark build and query throughput on random points",
	Run:   runBench,
}

var (
	numTargets int
	numQueries int
	radius     float64
	seed       int64

	usePostgis bool
	pgHost     string
	pgPort     int
	pgUser     string
	pgPassword string
	pgDatabase string
)

func init() {
	benchCmd.Flags().IntVarP(&numTargets, "targets", "t", 100000, "Number of target points")
	benchCmd.Flags().IntVarP(&numQueries, "queries", "q", 10000, "Number of query points")
	benchCmd.Flags().Float64VarP(&radius, "radius", "r", 0.5, "Within-distance search radius")
	benchCmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")

	benchCmd.Flags().BoolVar(&usePostgis, "postgis", false, "Cross-check match counts against PostGIS")
	benchCmd.Flags().StringVar(&pgHost, "pg-host", "localhost", "PostGIS host")
	benchCmd.Flags().IntVar(&pgPort, "pg-port", 5432, "PostGIS port")
	benchCmd.Flags().StringVar(&pgUser, "pg-user", "postgres", "PostGIS user")
	benchCmd.Flags().StringVar(&pgPassword, "pg-password", "postgres", "PostGIS password")
	benchCmd.Flags().StringVar(&pgDatabase, "pg-database", "geodb", "PostGIS database")

	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(benchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runDemo(cmd *cobra.Command, args []string) {
	targets, err := geometry.NewLineStrings(
		[][]float64{{0, 0}, {1, 0}, {1, 1}, {-1, 1}, {2, 2}, {3, 3}},
		[]uint32{0, 2, 4, 6},
	)
	if err != nil {
		log.Fatalf("Failed to build target collection: %v", err)
	}
	queries, err := geometry.NewPoints([][]float64{{0.5, 0}, {0, 1}, {5, 5}})
	if err != nil {
		log.Fatalf("Failed to build query collection: %v", err)
	}

	engine, err := query.New(targets)
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}

	overlaps, err := engine.Overlaps(queries)
	if err != nil {
		log.Fatalf("Overlaps failed: %v", err)
	}
	intersects, err := engine.Intersects(queries)
	if err != nil {
		log.Fatalf("Intersects failed: %v", err)
	}
	within, err := engine.WithinDistance(queries, 0.25)
	if err != nil {
		log.Fatalf("WithinDistance failed: %v", err)
	}
	nearest, err := engine.Nearest(queries)
	if err != nil {
		log.Fatalf("Nearest failed: %v", err)
	}

	fmt.Println(titleStyle.Render("🌍 Geo Query Demo"))
	fmt.Println(subtitleStyle.Render("Targets: 3 linestrings — queries: 3 points"))
	fmt.Println()

	fmt.Println(subtitleStyle.Render("Overlaps"))
	overlaps.Iterate(func(item int, indices []uint32) {
		fmt.Printf("  query %d → %s\n", item, statStyle.Render(fmt.Sprintf("%v", indices)))
	})

	fmt.Println(subtitleStyle.Render("Intersects"))
	intersects.Iterate(func(item int, indices []uint32) {
		fmt.Printf("  query %d → %s\n", item, statStyle.Render(fmt.Sprintf("%v", indices)))
	})

	fmt.Println(subtitleStyle.Render("WithinDistance(0.25)"))
	within.Iterate(func(item int, indices []uint32) {
		fmt.Printf("  query %d → %s\n", item, statStyle.Render(fmt.Sprintf("%v", indices)))
	})

	fmt.Println(subtitleStyle.Render("Nearest"))
	nearest.Iterate(func(item int, indices []uint32) {
		fmt.Printf("  query %d → %s %s\n", item,
			statStyle.Render(fmt.Sprintf("%v", indices)),
			dimStyle.Render(fmt.Sprintf("(dist %.4f)", nearest.Distances[item])))
	})

	fmt.Println(boxStyle.Render(successStyle.Render("Demo complete!") +
		fmt.Sprintf("\n\n%d targets indexed, %d queries answered per family",
			targets.Len(), queries.Len())))
}

// crossCheck loads the bench data into PostGIS and compares
// within-distance match counts against the engine's.
func crossCheck(targets, queries *geometry.Collection, engineMatches int) {
	ref, err := postgis.Connect(pgHost, pgPort, pgUser, pgPassword, pgDatabase)
	if err != nil {
		log.Fatalf("PostGIS connect failed: %v", err)
	}
	defer ref.Close()

	if err := ref.InitSchema(); err != nil {
		log.Fatalf("PostGIS schema init failed: %v", err)
	}
	if err := ref.LoadCollection(targets); err != nil {
		log.Fatalf("PostGIS load failed: %v", err)
	}
	if err := ref.CreateSpatialIndex(); err != nil {
		log.Fatalf("PostGIS index creation failed: %v", err)
	}

	refWithin, err := ref.WithinDistance(queries, radius)
	if err != nil {
		log.Fatalf("PostGIS within-distance failed: %v", err)
	}

	if len(refWithin.Indices) != engineMatches {
		fmt.Println(errorStyle.Render(fmt.Sprintf(
			"✗ MISMATCH: engine found %d matches, PostGIS found %d",
			engineMatches, len(refWithin.Indices))))
		os.Exit(1)
	}
	fmt.Println(successStyle.Render(fmt.Sprintf(
		"✓ PostGIS cross-check passed (%d matches)", engineMatches)))
}
