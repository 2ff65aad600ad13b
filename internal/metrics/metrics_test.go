package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	Register()
	Register()

	before := testutil.ToFloat64(shiftOps.WithLabelValues("create", "ok"))
	IncShiftOp("create", "ok")
	assert.Equal(t, before+1, testutil.ToFloat64(shiftOps.WithLabelValues("create", "ok")))

	clashes := testutil.ToFloat64(shiftClashes)
	IncShiftClash()
	assert.Equal(t, clashes+1, testutil.ToFloat64(shiftClashes))

	published := testutil.ToFloat64(weeksPublished)
	IncWeekPublished()
	assert.Equal(t, published+1, testutil.ToFloat64(weeksPublished))

	ObserveRequest("GET", 200, 15*time.Millisecond)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(requestDuration, namespace+"_http_request_duration_seconds"), 1)
}
