package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the authorization-code subsystem.
type Metrics struct {
	CodesIssued     prometheus.Counter
	CodesVerified   prometheus.Counter
	CodeMismatches  prometheus.Counter
	VerifyLockouts  prometheus.Counter
	NotifyFailures  prometheus.Counter
	DirectoryErrors prometheus.Counter
	CodesExpired    prometheus.Counter
}

// New registers all auth-code metrics on the default registry. Construct once
// per process; unit tests pass a nil *Metrics instead (methods are nil-safe).
func New() *Metrics {
	return &Metrics{
		CodesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kiosk_auth_codes_issued_total",
			Help: "Total number of authorization codes issued",
		}),
		CodesVerified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kiosk_auth_codes_verified_total",
			Help: "Total number of successful code verifications",
		}),
		CodeMismatches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kiosk_auth_code_mismatches_total",
			Help: "Total number of wrong-code submissions",
		}),
		VerifyLockouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kiosk_auth_verify_lockouts_total",
			Help: "Total number of subjects locked out after repeated mismatches",
		}),
		NotifyFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kiosk_auth_notify_failures_total",
			Help: "Total number of failed code delivery attempts to the chat channel",
		}),
		DirectoryErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kiosk_auth_directory_errors_total",
			Help: "Total number of failed chat-identity persistence attempts",
		}),
		CodesExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kiosk_auth_codes_expired_total",
			Help: "Total number of codes evicted by TTL expiry",
		}),
	}
}

func (m *Metrics) IncIssued() {
	if m != nil {
		m.CodesIssued.Inc()
	}
}

func (m *Metrics) IncVerified() {
	if m != nil {
		m.CodesVerified.Inc()
	}
}

func (m *Metrics) IncMismatch() {
	if m != nil {
		m.CodeMismatches.Inc()
	}
}

func (m *Metrics) IncLockout() {
	if m != nil {
		m.VerifyLockouts.Inc()
	}
}

func (m *Metrics) IncNotifyFailure() {
	if m != nil {
		m.NotifyFailures.Inc()
	}
}

func (m *Metrics) IncDirectoryError() {
	if m != nil {
		m.DirectoryErrors.Inc()
	}
}

func (m *Metrics) AddExpired(n int) {
	if m != nil && n > 0 {
		m.CodesExpired.Add(float64(n))
	}
}
