package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// writeMetrics prints every sample gathered from g, one per line:
//
//	grnbind_select_total{operator="or",outcome="ok"} 1
//
// Histograms print their sample count and sum.
func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return WrapExitError(ExitCommandError, "gathering metrics", err)
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name, labels := mf.GetName(), formatLabels(m.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				fmt.Fprintf(w, "%s%s %g\n", name, labels, m.GetCounter().GetValue())
			case dto.MetricType_GAUGE:
				fmt.Fprintf(w, "%s%s %g\n", name, labels, m.GetGauge().GetValue())
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				fmt.Fprintf(w, "%s_count%s %d\n", name, labels, h.GetSampleCount())
				fmt.Fprintf(w, "%s_sum%s %g\n", name, labels, h.GetSampleSum())
			}
		}
	}
	return nil
}

func formatLabels(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
	}
	return "{" + strings.Join(parts, ",") + "}"
}
