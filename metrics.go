package main

import "github.com/prometheus/client_golang/prometheus"

var (
	loginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardcheck",
			Name:      "login_attempts_total",
			Help:      "Login form submissions by outcome",
		},
		[]string{"outcome"},
	)
	registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardcheck",
			Name:      "registrations_total",
			Help:      "Free user registrations by outcome",
		},
		[]string{"outcome"},
	)
	redemptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardcheck",
			Name:      "key_redemptions_total",
			Help:      "Premium key redemptions by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(loginAttempts)
	prometheus.MustRegister(registrations)
	prometheus.MustRegister(redemptions)
}
