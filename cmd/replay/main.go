package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/danielpatrickdp/rlhf-playground/internal/replay"
	"github.com/danielpatrickdp/rlhf-playground/internal/scenario"
	"github.com/danielpatrickdp/rlhf-playground/internal/session"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture YAML or JSON")
	csvPath := flag.String("csv", "", "write recorded runs to this CSV file")
	flag.Parse()

	if *fixturePath == "" || flag.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.yaml [--csv out.csv]")
		os.Exit(2)
	}

	os.Exit(run(*fixturePath, *csvPath))
}

// #endregion main

// #region run

func run(fixturePath, csvPath string) int {
	f, err := replay.LoadFixture(fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}

	log := session.NewLog(session.WithCapacity(max(len(f.Runs), 1)))
	results := replay.Replay(scenario.Default(), f, log)
	code := printResults(results)

	if csvPath != "" && log.Len() > 0 {
		if err := writeCSV(csvPath, log); err != nil {
			fmt.Fprintf(os.Stderr, "export csv: %v\n", err)
			return 2
		}
		fmt.Printf("Wrote %d recorded runs to %s\n", log.Len(), csvPath)
	}
	return code
}

func writeCSV(path string, log *session.Log) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := log.ExportCSV(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// #endregion run

// #region output

// printResults outputs a result table and returns the exit code.
func printResults(results []replay.Result) int {
	fmt.Printf("%-5s| %-24s| %-6s| %s\n", "Run", "Scenario", "Result", "Detail")
	fmt.Printf("%-5s+%-25s+%-7s+%s\n", "-----", strings.Repeat("-", 25), "-------", "------")

	for _, r := range results {
		status, detail := "OK", ""
		if !r.Passed {
			status = "FAIL"
			detail = strings.Join(r.Failures, "; ")
		}
		fmt.Printf("%-5d| %-24s| %-6s| %s\n", r.Index, r.Scenario, status, detail)
	}

	s := replay.Summarize(results)
	fmt.Printf("\nSummary: %d total, %d passed, %d failed, %d recorded\n", s.Total, s.Passed, s.Failed, s.Recorded)

	if s.Failed > 0 {
		return 1
	}
	return 0
}

// #endregion output
