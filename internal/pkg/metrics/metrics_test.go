package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	// 各テストで新しいレジストリを使用
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	require.NotNil(t, m)
	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPRequestDuration)
	assert.NotNil(t, m.BookingsTotal)
	assert.NotNil(t, m.SlotLockDuration)
	assert.NotNil(t, m.ActiveBookings)
}

func TestBookingsTotal(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.BookingsTotal.WithLabelValues("held").Inc()
	m.BookingsTotal.WithLabelValues("held").Inc()
	m.BookingsTotal.WithLabelValues("conflict").Inc()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.BookingsTotal.WithLabelValues("held")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BookingsTotal.WithLabelValues("conflict")))
}

func TestActiveBookings(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.ActiveBookings.WithLabelValues("held").Inc()
	m.ActiveBookings.WithLabelValues("held").Inc()
	m.ActiveBookings.WithLabelValues("held").Dec()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.ActiveBookings.WithLabelValues("held")))
}

func TestSlotLockDuration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	assert.NotPanics(t, func() {
		m.SlotLockDuration.WithLabelValues("acquire", "success").Observe(0.01)
		m.SlotLockDuration.WithLabelValues("release", "failed").Observe(0.5)
	})
}

func TestInitAndGet(t *testing.T) {
	// Init前はnilの可能性があるため保存しておく
	original := defaultMetrics
	defer func() { defaultMetrics = original }()

	defaultMetrics = NewWithRegistry(prometheus.NewRegistry())
	require.NotNil(t, Get())
}
