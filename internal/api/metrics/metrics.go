// Package metrics defines and registers the custom Prometheus metrics for
// the marketplace auth service. It is the single source of truth for metric
// names, labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid", "deactivated", or "rate_limited"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// CredentialsIssuedTotal counts issued credentials.
// Label:
//   - grant: "register", "login", or "refresh"
var CredentialsIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credentials_issued_total",
		Help:      "Total number of credentials issued, by grant type.",
	},
	[]string{"grant"},
)

// AuthDeniedTotal counts requests rejected by authentication or authorization.
// Label:
//   - reason: "missing_credential", "invalid_credential", "expired_credential",
//     "account_deactivated", or "forbidden"
var AuthDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_denied_total",
		Help:      "Total number of requests denied by the auth layer, by reason.",
	},
	[]string{"reason"},
)
