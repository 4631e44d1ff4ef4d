// Package coverage scrapes per-package coverage figures from the test
// runner's human-readable output. The output format is an implicit contract
// with gotestsum; when it changes, only this package needs updating.
package coverage

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// NoTestsSentinel appears in the runner output when nothing was executed.
const NoTestsSentinel = "DONE 0 tests"

// Sample is a single package coverage percentage.
type Sample struct {
	Package string
	Percent float64
}

// Summary aggregates samples.
type Summary struct {
	Packages int
	// Mean is the unweighted average rounded to one decimal place, ties to
	// even.
	Mean float64
}

// String renders the summary as "N pkg: X.X%".
func (s Summary) String() string {
	return fmt.Sprintf("%d pkg: %.1f%%", s.Packages, s.Mean)
}

var (
	percentPattern = regexp.MustCompile(`([0-9]+\.[0-9]+)%`)
	packagePattern = regexp.MustCompile(`(?:^|\s)([\w.\-]+(?:/[\w.\-]+)+)\s`)
)

// NoTestsRan reports whether the output carries the zero-tests sentinel.
func NoTestsRan(output string) bool {
	return strings.Contains(output, NoTestsSentinel)
}

// Parse extracts every floating point number immediately followed by a
// percent sign, in order of appearance. The package is taken from the nearest
// import-path-looking token on the same line when one exists.
func Parse(output string) []Sample {
	var samples []Sample
	for _, line := range strings.Split(output, "\n") {
		matches := percentPattern.FindAllStringSubmatch(line, -1)
		if len(matches) == 0 {
			continue
		}
		pkg := ""
		if m := packagePattern.FindStringSubmatch(line); m != nil {
			pkg = m[1]
		}
		for _, m := range matches {
			value, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			samples = append(samples, Sample{Package: pkg, Percent: value})
		}
	}
	return samples
}

// Summarize returns the count and the mean rounded to one decimal. An empty
// input yields a zero summary.
func Summarize(samples []Sample) Summary {
	if len(samples) == 0 {
		return Summary{}
	}
	var total float64
	for _, s := range samples {
		total += s.Percent
	}
	return Summary{Packages: len(samples), Mean: roundTenth(total / float64(len(samples)))}
}

// roundTenth rounds to one decimal place on the exact binary value, ties to
// even, so 80.25 becomes 80.2 and 0.15 (stored just below) becomes 0.1.
func roundTenth(v float64) float64 {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	if err != nil {
		return v
	}
	return rounded
}
