package logmux

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// forwardedLines counts every line written to the output, by whether the
// wrapper was stripped.
var forwardedLines = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "procvisor_logmux_lines_total",
		Help: "Lines forwarded by the log multiplexer, by whether they were unwrapped",
	},
	[]string{"rewritten"},
)

func recordLine(rewritten bool) {
	if rewritten {
		forwardedLines.WithLabelValues("true").Inc()
	} else {
		forwardedLines.WithLabelValues("false").Inc()
	}
}
