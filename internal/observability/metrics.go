package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain collectors. HTTP-level metrics live in the middleware package; these
// describe what the bot does with the traffic.
var (
	// Interactions counts inbound interactions by kind and dispatch outcome.
	Interactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitcord_interactions_total",
			Help: "Inbound interactions by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	// Registrations gauges live correlation registrations.
	Registrations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gitcord_correlation_registrations",
			Help: "Currently armed correlation registrations.",
		},
	)

	// RegistrationExpiries counts registrations removed by their timer.
	RegistrationExpiries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gitcord_correlation_expired_total",
			Help: "Correlation registrations that timed out.",
		},
	)

	// DiscordRateLimited counts 429s (or retry_after bodies) seen by the
	// outbound client, labelled by whether it retried or gave up.
	DiscordRateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitcord_discord_rate_limited_total",
			Help: "Rate-limit signals received from the Discord REST API.",
		},
		[]string{"action"},
	)

	// DiscordRequests records outbound Discord REST latency by method and status.
	DiscordRequests = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gitcord_discord_request_duration_seconds",
			Help:    "Duration of outbound Discord REST calls.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)

	// AutocompleteCache counts cache lookups by result (hit|miss|refresh_error).
	AutocompleteCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gitcord_autocomplete_cache_total",
			Help: "Autocomplete cache lookups by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		Interactions,
		Registrations,
		RegistrationExpiries,
		DiscordRateLimited,
		DiscordRequests,
		AutocompleteCache,
	)
}
