package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/", "200"))
	RecordHTTPRequest("GET", "/", 200, 5*time.Millisecond)
	after := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/", "200"))
	if after-before != 1 {
		t.Errorf("request counter moved by %v, want 1", after-before)
	}
}

func TestRecordPrediction(t *testing.T) {
	before := testutil.ToFloat64(Predictions.WithLabelValues("invalid_input"))
	RecordPrediction("invalid_input", 0)
	if got := testutil.ToFloat64(Predictions.WithLabelValues("invalid_input")) - before; got != 1 {
		t.Errorf("prediction counter moved by %v, want 1", got)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(HTTPActiveRequests); got != before+1 {
		t.Errorf("active requests = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(HTTPActiveRequests); got != before {
		t.Errorf("active requests = %v, want %v", got, before)
	}
}

func TestSetAppState(t *testing.T) {
	SetAppState(42, true)
	if got := testutil.ToFloat64(DatasetRows); got != 42 {
		t.Errorf("DatasetRows = %v, want 42", got)
	}
	if got := testutil.ToFloat64(ModelLoaded); got != 1 {
		t.Errorf("ModelLoaded = %v, want 1", got)
	}
	SetAppState(0, false)
	if got := testutil.ToFloat64(ModelLoaded); got != 0 {
		t.Errorf("ModelLoaded = %v, want 0", got)
	}
}
