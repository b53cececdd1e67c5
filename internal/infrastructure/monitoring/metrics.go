package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type BusinessMetrics struct {
	EligibilityDecisions *prometheus.CounterVec
	LoansOriginated      prometheus.Counter
	CustomersRegistered  prometheus.Counter
	IngestionRows        *prometheus.CounterVec
	IngestionJobs        *prometheus.CounterVec
}

var (
	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loan_engine_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Business = BusinessMetrics{
		EligibilityDecisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loan_engine_eligibility_decisions_total",
				Help: "Total number of eligibility evaluations by outcome.",
			},
			[]string{"outcome"},
		),
		LoansOriginated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "loan_engine_loans_originated_total",
				Help: "Total number of loans created through origination.",
			},
		),
		CustomersRegistered: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "loan_engine_customers_registered_total",
				Help: "Total number of customers created through registration.",
			},
		),
		IngestionRows: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loan_engine_ingestion_rows_total",
				Help: "Total number of ingested spreadsheet rows by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		IngestionJobs: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loan_engine_ingestion_jobs_total",
				Help: "Total number of finished ingestion jobs by kind and state.",
			},
			[]string{"kind", "state"},
		),
	}
)

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

// ObserveDBQuery returns a func to be deferred around a query; it reads *err at call time.
func ObserveDBQuery(queryName string, err *error) func() {
	start := time.Now()
	return func() {
		status := "success"
		if err != nil && *err != nil {
			status = "error"
		}
		RecordDBQuery(queryName, status, time.Since(start))
	}
}

func RecordEligibilityDecision(approved bool) {
	outcome := "rejected"
	if approved {
		outcome = "approved"
	}
	Business.EligibilityDecisions.WithLabelValues(outcome).Inc()
}

func RecordLoanOriginated() {
	Business.LoansOriginated.Inc()
}

func RecordCustomerRegistered() {
	Business.CustomersRegistered.Inc()
}

func RecordIngestionRow(kind, outcome string) {
	Business.IngestionRows.WithLabelValues(kind, outcome).Inc()
}

func RecordIngestionJob(kind, state string) {
	Business.IngestionJobs.WithLabelValues(kind, state).Inc()
}
