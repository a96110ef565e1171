package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.OrdersCreated.WithLabelValues("Offer").Inc()
	m.OrdersCreated.WithLabelValues("Tender").Add(2)
	m.AcceptanceConflicts.Inc()
	m.NotificationFailed("order.created")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.OrdersCreated.WithLabelValues("Offer")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.OrdersCreated.WithLabelValues("Tender")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.AcceptanceConflicts))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationFailures.WithLabelValues("order.created")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 3)
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
