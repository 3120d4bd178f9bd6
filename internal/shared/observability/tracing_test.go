package observability

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTracerIsUsableWithoutProvider(t *testing.T) {
	ctx, span := Tracer.Start(context.Background(), "test")
	defer span.End()
	assert.NotNil(t, ctx)
}

func TestViolationCounterByKind(t *testing.T) {
	before := testutil.ToFloat64(ViolationsTotal.WithLabelValues("implement"))
	ViolationsTotal.WithLabelValues("implement").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(ViolationsTotal.WithLabelValues("implement")))
}
