// Command validate runs the integrity checks on the station catalog: unique
// IDs, known districts, coordinates inside Sri Lanka, ordered thresholds,
// alert windows and enum values. It exits non-zero on any failure.
//
// Usage:
//
//	go run ./cmd/validate           # the embedded catalog
//	go run ./cmd/validate -file seed.yaml
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/flood-watch-api/internal/catalog"
)

func main() {
	file := flag.String("file", "", "catalog YAML to check instead of the embedded seed")
	flag.Parse()

	os.Exit(run(*file, os.Stdout))
}

func run(path string, out io.Writer) int {
	var (
		c   *catalog.Catalog
		err error
	)
	if path == "" {
		c, err = catalog.Parse(catalog.Seed())
	} else {
		var data []byte
		data, err = os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(out, "FAIL read %s: %v\n", path, err)
			return 1
		}
		c, err = catalog.Parse(data)
	}
	if err != nil {
		fmt.Fprintf(out, "FAIL %v\n", err)
		return 1
	}

	if err := c.Validate(); err != nil {
		var joined interface{ Unwrap() []error }
		problems := []error{err}
		if errors.As(err, &joined) {
			problems = joined.Unwrap()
		}
		for _, p := range problems {
			fmt.Fprintf(out, "FAIL %v\n", p)
		}
		fmt.Fprintf(out, "%d problem(s) found\n", len(problems))
		return 1
	}

	fmt.Fprintf(out, "PASS %d stations, %d risk zones, %d alerts, %d news items\n",
		len(c.Stations("")), len(c.RiskZones("")), len(c.Alerts(false)), len(c.News("")))
	return 0
}
