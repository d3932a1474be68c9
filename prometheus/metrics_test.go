package prometheus

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dbOperationSamples(t *testing.T, operation string) uint64 {
	t.Helper()
	obs, err := DBOperationDuration.GetMetricWithLabelValues(operation)
	require.NoError(t, err)
	var m dto.Metric
	require.NoError(t, obs.(prometheus.Histogram).Write(&m))
	return m.GetHistogram().GetSampleCount()
}

func TestTrackDBOperation_RecordsDuration(t *testing.T) {
	before := dbOperationSamples(t, "query")
	TrackDBOperation("query")(time.Now().Add(-5 * time.Millisecond))
	after := dbOperationSamples(t, "query")
	assert.Equal(t, before+1, after)
}

func TestTrackDBOperation_LabelsPerOperation(t *testing.T) {
	beforeInsert := dbOperationSamples(t, "insert")
	beforeDelete := dbOperationSamples(t, "delete")

	TrackDBOperation("insert")(time.Now())

	assert.Equal(t, beforeInsert+1, dbOperationSamples(t, "insert"))
	assert.Equal(t, beforeDelete, dbOperationSamples(t, "delete"))
}
