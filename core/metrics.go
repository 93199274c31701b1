package core

import "context"

// metricNamespace prefixes every metric the registry emits.
const metricNamespace = "ownership"

// Per-operation metric names follow ownership.<operation>.total and
// ownership.<operation>.duration_ms.
func operationCounterName(operation string) string {
	return metricNamespace + "." + operation + ".total"
}

func operationDurationName(operation string) string {
	return metricNamespace + "." + operation + ".duration_ms"
}

// NopMetricsRecorder satisfies MetricsRecorder for hosts that do not
// collect registry metrics.
type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

func cloneTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return map[string]string{}
	}
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}

var _ MetricsRecorder = NopMetricsRecorder{}
