package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/danielpatrickdp/rlhf-playground/internal/replay"
	"github.com/danielpatrickdp/rlhf-playground/internal/scenario"
)

// #region main

func main() {
	outPath := flag.String("out", "", "output fixture YAML path (- for stdout)")
	only := flag.String("scenarios", "", "comma-separated scenario ids (default: all)")
	description := flag.String("description", "default run of every scenario", "fixture description")
	flag.Parse()

	if *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --out path/to/fixture.yaml [--scenarios a,b] [--description text]")
		os.Exit(2)
	}

	if err := run(*outPath, *only, *description); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region export

func run(outPath, only, description string) error {
	registry := scenario.Default()
	if only != "" {
		ids := strings.Split(only, ",")
		for i := range ids {
			ids[i] = strings.TrimSpace(ids[i])
		}
		sub, err := registry.Subset(ids...)
		if err != nil {
			return fmt.Errorf("select scenarios: %w", err)
		}
		registry = sub
	}

	f := replay.Generate(registry, description)

	if outPath == "-" {
		return replay.WriteFixture(os.Stdout, f)
	}
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	if err := replay.WriteFixture(out, f); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", outPath, err)
	}
	fmt.Fprintf(os.Stderr, "Exported %d runs to %s\n", len(f.Runs), outPath)
	return nil
}

// #endregion export
