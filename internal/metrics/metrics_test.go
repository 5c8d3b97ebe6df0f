package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveMovement(t *testing.T) {
	before := testutil.ToFloat64(PointsMoved.WithLabelValues("award"))
	ObserveMovement("award", 15)
	ObserveMovement("award", 5)
	if got := testutil.ToFloat64(PointsMoved.WithLabelValues("award")) - before; got != 20 {
		t.Fatalf("points moved delta = %v, want 20", got)
	}
}

func TestObserveRejection(t *testing.T) {
	before := testutil.ToFloat64(Rejections.WithLabelValues("award", "insufficient_budget"))
	ObserveRejection("award", "insufficient_budget")
	if got := testutil.ToFloat64(Rejections.WithLabelValues("award", "insufficient_budget")) - before; got != 1 {
		t.Fatalf("delta = %v", got)
	}
}
