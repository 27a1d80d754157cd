package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Moderation metrics
var (
	ReportsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coriplus_reports_created_total",
		Help: "Total number of reports filed",
	}, []string{"media_type"})

	ModerationReviewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coriplus_moderation_reviews_total",
		Help: "Total number of report reviews applied",
	}, []string{"decision"})

	AdminGateDenialsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coriplus_admin_gate_denials_total",
		Help: "Total number of requests rejected by the admin gate",
	})
)

// Account metrics
var (
	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coriplus_logins_total",
		Help: "Total number of login attempts by outcome",
	}, []string{"outcome"})
)

// Content metrics
var (
	MessagesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coriplus_messages_created_total",
		Help: "Total number of messages published",
	})

	ContentRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coriplus_content_rejected_total",
		Help: "Total number of messages rejected by the content filter",
	}, []string{"reason"})
)
