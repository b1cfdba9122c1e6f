package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Subscriptions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landing_subscriptions_total",
		Help: "Subscribe requests grouped by outcome (created, duplicate, invalid, error)",
	}, []string{"result"})
	Unsubscriptions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landing_unsubscriptions_total",
		Help: "Unsubscribe requests grouped by outcome (removed, not_found, error)",
	}, []string{"result"})
	MailSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landing_mail_sent_total",
		Help: "Outbound mail attempts grouped by template kind and result",
	}, []string{"kind", "result"})
	BroadcastPasses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "landing_broadcast_passes_total",
		Help: "Broadcast passes grouped by trigger and outcome (completed, abandoned, failed)",
	}, []string{"trigger", "outcome"})
	SubscribersActivated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "landing_subscribers_activated_total",
		Help: "Subscribers flipped from awaiting launch to active",
	})
	ScheduledTasks = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "landing_scheduled_tasks",
		Help: "Delayed tasks currently waiting to fire",
	})
)

func init() {
	prometheus.MustRegister(Subscriptions)
	prometheus.MustRegister(Unsubscriptions)
	prometheus.MustRegister(MailSent)
	prometheus.MustRegister(BroadcastPasses)
	prometheus.MustRegister(SubscribersActivated)
	prometheus.MustRegister(ScheduledTasks)
}

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
