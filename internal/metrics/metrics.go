// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LeadsIngested counts leads persisted through an ingestion endpoint,
	// labelled by payload variant ("simple" or "legacy").
	LeadsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lms_leads_ingested_total",
		Help: "Leads created through the ingestion endpoints.",
	}, []string{"variant"})

	// LeadsRejected counts ingestion attempts that did not create a lead.
	LeadsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lms_leads_rejected_total",
		Help: "Ingestion attempts rejected before persistence.",
	}, []string{"variant", "reason"})

	// NotificationsSent counts new-lead emails handed to the mail transport.
	NotificationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lms_lead_notifications_sent_total",
		Help: "New-lead notification emails sent successfully.",
	})

	// NotificationFailures counts new-lead notifications that could not be sent.
	// These never reach the ingesting caller.
	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lms_lead_notification_failures_total",
		Help: "New-lead notification emails that failed.",
	})

	// SessionsSwept counts expired sessions removed by the sweeper.
	SessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lms_sessions_swept_total",
		Help: "Expired sessions deleted by bulk sweeps.",
	})

	// AccessDenied counts requests stopped by the access gate.
	AccessDenied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lms_access_denied_total",
		Help: "Requests rejected or redirected by the access gate.",
	}, []string{"reason"})

	// HTTPRequests counts completed HTTP requests by method and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lms_http_requests_total",
		Help: "Completed HTTP requests.",
	}, []string{"method", "status"})
)
