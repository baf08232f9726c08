package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// printStats writes one line per collected sample. Families with no samples
// are skipped.
func printStats(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gathering stats: %w", err)
	}

	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if line, ok := formatSample(mf, m); ok {
				lines = append(lines, line)
			}
		}
	}
	if len(lines) == 0 {
		return nil
	}
	sort.Strings(lines)

	fmt.Fprintln(w, "\nCatalog stats:")
	for _, line := range lines {
		fmt.Fprintln(w, "  "+line)
	}
	return nil
}

func formatSample(mf *dto.MetricFamily, m *dto.Metric) (string, bool) {
	name := mf.GetName()
	if labels := m.GetLabel(); len(labels) > 0 {
		pairs := make([]string, 0, len(labels))
		for _, lp := range labels {
			pairs = append(pairs, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
		}
		name += "{" + strings.Join(pairs, ",") + "}"
	}

	switch mf.GetType() {
	case dto.MetricType_COUNTER:
		v := m.GetCounter().GetValue()
		if v == 0 {
			return "", false
		}
		return fmt.Sprintf("%s %g", name, v), true
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		if h.GetSampleCount() == 0 {
			return "", false
		}
		return fmt.Sprintf("%s count=%d sum=%.3fs", name, h.GetSampleCount(), h.GetSampleSum()), true
	default:
		return "", false
	}
}
