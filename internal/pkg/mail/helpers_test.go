package mail

import (
	"github.com/mx-space/landing/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func metricsCounter(kind, result string) prometheus.Counter {
	return metrics.MailSent.WithLabelValues(kind, result)
}
