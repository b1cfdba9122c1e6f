package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(MailSent.WithLabelValues("test", "ok"))
	MailSent.WithLabelValues("test", "ok").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(MailSent.WithLabelValues("test", "ok")))

	ScheduledTasks.Set(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(ScheduledTasks))
	ScheduledTasks.Set(0)
}

func TestHandlerExposesLandingMetrics(t *testing.T) {
	SubscribersActivated.Add(0)
	Subscriptions.WithLabelValues("created").Add(0)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "landing_subscribers_activated_total")
	assert.Contains(t, body, "landing_subscriptions_total")
}
