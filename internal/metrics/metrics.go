// Package metrics exposes Prometheus collectors for the authorization
// server. Collectors are registered once on first use so tests can import
// the package repeatedly without duplicate-registration panics.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	tokensIssued          *prometheus.CounterVec
	authorizationRequests *prometheus.CounterVec
	tokenRevocations      prometheus.Counter
	introspections        *prometheus.CounterVec
	activeSessions        prometheus.Gauge
)

func register() {
	once.Do(func() {
		tokensIssued = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authserver",
			Name:      "tokens_issued_total",
			Help:      "Token sets issued, by grant type.",
		}, []string{"grant_type"})

		authorizationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authserver",
			Name:      "authorization_requests_total",
			Help:      "Authorize endpoint requests, by response type.",
		}, []string{"response_type"})

		tokenRevocations = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "authserver",
			Name:      "token_revocations_total",
			Help:      "Tokens revoked through the revocation endpoint.",
		})

		introspections = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authserver",
			Name:      "introspections_total",
			Help:      "Introspection requests, by result.",
		}, []string{"active"})

		activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "authserver",
			Name:      "active_sessions",
			Help:      "Sessions currently alive.",
		})
	})
}

// TokenIssued records an issued token set.
func TokenIssued(grantType string) {
	register()
	tokensIssued.WithLabelValues(grantType).Inc()
}

// AuthorizationRequest records an authorize endpoint hit.
func AuthorizationRequest(responseType string) {
	register()
	authorizationRequests.WithLabelValues(responseType).Inc()
}

// TokenRevoked records a revocation.
func TokenRevoked() {
	register()
	tokenRevocations.Inc()
}

// Introspection records an introspection result.
func Introspection(active bool) {
	register()
	label := "false"
	if active {
		label = "true"
	}
	introspections.WithLabelValues(label).Inc()
}

// SessionOpened increments the live-session gauge.
func SessionOpened() {
	register()
	activeSessions.Inc()
}

// SessionClosed decrements the live-session gauge.
func SessionClosed() {
	register()
	activeSessions.Dec()
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	register()
	return promhttp.Handler()
}
