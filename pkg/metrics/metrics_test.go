package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func findMetric(t *testing.T, families []*dto.MetricFamily, name string) *dto.MetricFamily {
	t.Helper()
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func TestObserveRequestRecordsCounterAndHistogram(t *testing.T) {
	m := New()
	m.ObserveRequest("GET", "/api/products", 200, 25*time.Millisecond)
	m.ObserveRequest("GET", "/api/products", 200, 40*time.Millisecond)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	counter := findMetric(t, families, "omegastore_http_requests_total")
	require.NotNil(t, counter)
	require.Len(t, counter.GetMetric(), 1)
	require.Equal(t, float64(2), counter.GetMetric()[0].GetCounter().GetValue())

	hist := findMetric(t, families, "omegastore_http_request_duration_seconds")
	require.NotNil(t, hist)
	require.Equal(t, uint64(2), hist.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestSettlementCounterLabels(t *testing.T) {
	m := New()
	m.OrderSettlementsTotal.WithLabelValues("settled").Inc()
	m.OrderSettlementsTotal.WithLabelValues("replay").Inc()
	m.OrderSettlementsTotal.WithLabelValues("replay").Inc()

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	mf := findMetric(t, families, "omegastore_order_settlements_total")
	require.NotNil(t, mf)

	byLabel := map[string]float64{}
	for _, metric := range mf.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "result" {
				byLabel[label.GetValue()] = metric.GetCounter().GetValue()
			}
		}
	}
	require.Equal(t, float64(1), byLabel["settled"])
	require.Equal(t, float64(2), byLabel["replay"])
}
