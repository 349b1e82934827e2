package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestPunchoutMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPunchoutMetrics(reg)
	partner := "ACME-DUNS"

	metrics.ObserveSetupDuration(partner, 250*time.Millisecond)
	metrics.IncSetup(partner, "success")
	metrics.IncSetup(partner, "error")
	metrics.IncOrderMessage(partner)
	metrics.AddItemsFulfilled(partner, 3)
	metrics.AddItemsFailed(partner, 1)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "punchout_setup_total", "outcome", "success"); err != nil {
		t.Fatalf("fetch setup success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "punchout_order_messages_total", "partner", partner); err != nil {
		t.Fatalf("fetch order messages: %v", err)
	} else if got != 1 {
		t.Fatalf("expected order messages=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "punchout_items_added_total", "partner", partner); err != nil {
		t.Fatalf("fetch items added: %v", err)
	} else if got != 3 {
		t.Fatalf("expected items added=3, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "punchout_items_failed_total", "partner", partner); err != nil {
		t.Fatalf("fetch items failed: %v", err)
	} else if got != 1 {
		t.Fatalf("expected items failed=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "punchout_setup_duration_seconds", "partner", partner); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestPunchoutMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewPunchoutMetrics(nil)
	metrics.IncSetup("", "success")
	metrics.IncOrderMessage("")
	metrics.AddItemsFulfilled("x", 1)
	metrics.AddItemsFailed("x", 1)
	metrics.ObserveSetupDuration("x", time.Second)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
