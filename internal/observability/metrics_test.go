package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordShardRead(t *testing.T) {
	okBefore := testutil.ToFloat64(DefaultMetrics.ShardReads.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(DefaultMetrics.ShardReads.WithLabelValues("error"))

	RecordShardRead(3, nil)
	RecordShardRead(1, errors.New("boom"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(DefaultMetrics.ShardReads.WithLabelValues("ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(DefaultMetrics.ShardReads.WithLabelValues("error")))
}

func TestRecordRefresh(t *testing.T) {
	RecordRefresh(nil, 1700000000)
	assert.Equal(t, float64(1700000000), testutil.ToFloat64(DefaultMetrics.LastSuccessfulRefresh))

	RecordRefresh(errors.New("rpc down"), 1800000000)
	assert.Equal(t, float64(1700000000), testutil.ToFloat64(DefaultMetrics.LastSuccessfulRefresh),
		"failed refresh must not advance the timestamp")
}

func TestRecordHistogramBuild(t *testing.T) {
	RecordHistogramBuild(0.25, 42)
	assert.Equal(t, float64(42), testutil.ToFloat64(DefaultMetrics.HistogramBins))
}
