package plot

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
)

var pngMagic = []byte("\x89PNG")

func checkPNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	if !bytes.HasPrefix(data, pngMagic) {
		t.Errorf("%s is not a PNG", path)
	}
}

func TestActualVsPredicted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "plots", ActualVsPredictedFile)
	if err := ActualVsPredicted(path, []float64{1, 2, 3}, []float64{1.1, 1.9, 3.2}); err != nil {
		t.Fatalf("ActualVsPredicted() error: %v", err)
	}
	checkPNG(t, path)
}

func TestActualVsPredictedMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), ActualVsPredictedFile)
	if err := ActualVsPredicted(path, []float64{1, 2}, []float64{1}); err == nil {
		t.Errorf("ActualVsPredicted() should reject mismatched slices")
	}
}

func TestStreamsDistribution(t *testing.T) {
	path := filepath.Join(t.TempDir(), StreamsDistributionFile)
	if err := StreamsDistribution(path, []float64{1e9, 2e9, 2.5e9, 4e8}); err != nil {
		t.Fatalf("StreamsDistribution() error: %v", err)
	}
	checkPNG(t, path)

	if err := StreamsDistribution(path, nil); err == nil {
		t.Errorf("StreamsDistribution(nil) should fail")
	}
}

func TestStreamsHistogramInMillions(t *testing.T) {
	p, hist, err := streamsHistogram([]float64{1e6, 5e8, 2.5e9, 4e8})
	if err != nil {
		t.Fatalf("streamsHistogram() error: %v", err)
	}
	if p.Title.Text != "Distribution of Track Streams (in Millions)" {
		t.Errorf("title = %q", p.Title.Text)
	}
	if p.X.Label.Text != "Streams (Millions)" {
		t.Errorf("x label = %q", p.X.Label.Text)
	}

	if len(hist.Bins) != 30 {
		t.Errorf("len(Bins) = %d, want 30", len(hist.Bins))
	}
	lo, hi := hist.Bins[0].Min, hist.Bins[len(hist.Bins)-1].Max
	if math.Abs(lo-1) > 1e-9 || math.Abs(hi-2500) > 1e-6 {
		t.Errorf("bin range = [%v, %v], want [1, 2500] in millions", lo, hi)
	}
}
