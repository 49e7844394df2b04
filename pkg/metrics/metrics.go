package metrics

import (
	"expvar"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ApplicationsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_applications_submitted_total",
			Help: "Total number of submitted loan applications by heuristic status",
		},
		[]string{"status"},
	)

	WizardTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_wizard_transitions_total",
			Help: "Wizard commands by outcome",
		},
		[]string{"command", "outcome"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_wizard_validation_failures_total",
			Help: "Field validation failures per field",
		},
		[]string{"field"},
	)

	ReviewsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_reviews_recorded_total",
			Help: "Analyst reviews by decision",
		},
		[]string{"decision"},
	)

	QuoteRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loan_quote_requests_total",
			Help: "Public installment quotes served",
		},
	)

	NotificationsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_notifications_enqueued_total",
			Help: "Email jobs put on the queue by template and outcome",
		},
		[]string{"template", "outcome"},
	)
)

// Vars mirrors the submission counters under /debug/vars.
var Vars = expvar.NewMap("loan_simulator")

// RecordSubmission counts one submitted application.
func RecordSubmission(status string) {
	ApplicationsSubmitted.WithLabelValues(status).Inc()
	Vars.Add("submitted_"+status, 1)
}

// RecordTransition counts a wizard command and its outcome ("ok" or "rejected").
func RecordTransition(command string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "rejected"
	}
	WizardTransitions.WithLabelValues(command, outcome).Inc()
}

// RecordFieldErrors counts each failing field of a rejected command.
func RecordFieldErrors(fields []string) {
	for _, f := range fields {
		ValidationFailures.WithLabelValues(f).Inc()
	}
}

func RecordReview(decision string) {
	ReviewsRecorded.WithLabelValues(decision).Inc()
	Vars.Add("reviews_"+decision, 1)
}

func RecordNotification(template string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	NotificationsEnqueued.WithLabelValues(template, outcome).Inc()
}
