package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordPlacement(t *testing.T) {
	before := testutil.ToFloat64(PlacementOperationsTotal.WithLabelValues("reorder", "error"))

	RecordPlacement("reorder", errors.New("boom"), 10*time.Millisecond)
	RecordPlacement("reorder", nil, 0)

	assert.Equal(t, before+1, testutil.ToFloat64(PlacementOperationsTotal.WithLabelValues("reorder", "error")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(PlacementOperationsTotal.WithLabelValues("reorder", "success")), 1.0)
}

func TestSetESPCircuitState(t *testing.T) {
	SetESPCircuitState(2)
	assert.Equal(t, 2.0, testutil.ToFloat64(ESPCircuitState))
	SetESPCircuitState(0)
	assert.Equal(t, 0.0, testutil.ToFloat64(ESPCircuitState))
}

func TestRecordStatusSync(t *testing.T) {
	before := testutil.ToFloat64(StatusSyncTotal.WithLabelValues("updated"))
	RecordStatusSync("updated")
	assert.Equal(t, before+1, testutil.ToFloat64(StatusSyncTotal.WithLabelValues("updated")))
}
