package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveAuthorization(t *testing.T) {
	before := testutil.ToFloat64(authorizationsTotal.WithLabelValues("daily_limit"))
	ObserveAuthorization("daily_limit")
	ObserveAuthorization("daily_limit")
	assert.Equal(t, before+2, testutil.ToFloat64(authorizationsTotal.WithLabelValues("daily_limit")))
}

func TestObserveGeneration(t *testing.T) {
	before := testutil.ToFloat64(generationsTotal.WithLabelValues("upwork", "ok"))
	ObserveGeneration("upwork", "gpt-4", "ok", 2*time.Second)
	assert.Equal(t, before+1, testutil.ToFloat64(generationsTotal.WithLabelValues("upwork", "ok")))
}
