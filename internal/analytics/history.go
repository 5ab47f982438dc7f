package analytics

// HistoryProvider supplies the historical baseline value for a metric id,
// used to compute trends. Injecting it keeps metric output deterministic;
// production wires a store-backed provider, tests a fixture.
type HistoryProvider interface {
	Baseline(metricID string) (float64, bool)
}

// StaticHistory is a fixture provider backed by a fixed map. Intended for
// tests and for deployments that snapshot baselines out of band.
type StaticHistory map[string]float64

func (h StaticHistory) Baseline(metricID string) (float64, bool) {
	v, ok := h[metricID]
	return v, ok
}

// NoHistory reports no baseline for any metric, which leaves every trend
// stable at 0%.
type NoHistory struct{}

func (NoHistory) Baseline(string) (float64, bool) { return 0, false }
