package coverage

import "testing"

const runnerOutput = `PASS deque.TestNew (0.00s)
PASS deque.TestPush (0.00s)
coverage: 80.0% of statements
ok  	github.com/neoxelox/gilk/deque	0.014s	coverage: 90.0% of statements
ok  	github.com/neoxelox/gilk	0.120s	coverage: 70.0% of statements

DONE 12 tests in 1.337s
`

func TestParseExtractsEveryPercentage(t *testing.T) {
	samples := Parse(runnerOutput)
	if len(samples) != 3 {
		t.Fatalf("len(samples) = %d, want 3: %+v", len(samples), samples)
	}
	want := []float64{80.0, 90.0, 70.0}
	for i, s := range samples {
		if s.Percent != want[i] {
			t.Fatalf("samples[%d] = %v, want %v", i, s.Percent, want[i])
		}
	}
	if samples[1].Package != "github.com/neoxelox/gilk/deque" {
		t.Fatalf("package = %q", samples[1].Package)
	}
}

func TestSummarizeRoundsMean(t *testing.T) {
	cases := []struct {
		values []float64
		want   string
	}{
		{[]float64{80.0, 90.0, 70.0}, "3 pkg: 80.0%"},
		{[]float64{33.3, 33.3, 33.4}, "3 pkg: 33.3%"},
		{[]float64{50.25, 50.0}, "2 pkg: 50.1%"},
		{[]float64{100.0}, "1 pkg: 100.0%"},
		{[]float64{80.0, 80.5}, "2 pkg: 80.2%"},
		{[]float64{1.25}, "1 pkg: 1.2%"},
		{[]float64{0.15}, "1 pkg: 0.1%"},
		{[]float64{1.35}, "1 pkg: 1.4%"},
		{nil, "0 pkg: 0.0%"},
	}
	for _, tc := range cases {
		samples := make([]Sample, 0, len(tc.values))
		for _, v := range tc.values {
			samples = append(samples, Sample{Percent: v})
		}
		if got := Summarize(samples).String(); got != tc.want {
			t.Fatalf("Summarize(%v) = %s, want %s", tc.values, got, tc.want)
		}
	}
}

func TestIntegersWithoutDecimalsAreIgnored(t *testing.T) {
	if got := Parse("progress 100% done"); len(got) != 0 {
		t.Fatalf("expected no samples, got %+v", got)
	}
}

func TestNoTestsRan(t *testing.T) {
	if !NoTestsRan("coverage: 55.5% of statements\nDONE 0 tests in 0.2s") {
		t.Fatalf("sentinel not detected")
	}
	if NoTestsRan(runnerOutput) {
		t.Fatalf("sentinel falsely detected")
	}
}
