package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// SignerMetrics tracks finalize-signing outcomes.
type SignerMetrics struct {
	signed        prometheus.Counter
	rejected      *prometheus.CounterVec
	serviceErrors prometheus.Counter
	lastNonce     *prometheus.GaugeVec
}

var (
	signerOnce     sync.Once
	signerRegistry *SignerMetrics
)

func Signer() *SignerMetrics {
	signerOnce.Do(func() {
		signerRegistry = &SignerMetrics{
			signed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "clawarena_signer_signed_total",
				Help: "Count of successful finalize signatures produced.",
			}),
			rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "clawarena_signer_rejected_total",
				Help: "Count of finalize requests rejected by validation code.",
			}, []string{"code"}),
			serviceErrors: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "clawarena_signer_service_unavailable_total",
				Help: "Count of signing attempts that failed due to signing service unavailability.",
			}),
			lastNonce: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "clawarena_signer_last_nonce",
				Help: "Last successfully consumed nonce per arena.",
			}, []string{"arena"}),
		}
		prometheus.MustRegister(
			signerRegistry.signed,
			signerRegistry.rejected,
			signerRegistry.serviceErrors,
			signerRegistry.lastNonce,
		)
	})
	return signerRegistry
}

func (m *SignerMetrics) ObserveSigned() {
	if m == nil {
		return
	}
	m.signed.Inc()
}

func (m *SignerMetrics) ObserveRejected(code string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(code).Inc()
}

func (m *SignerMetrics) ObserveServiceUnavailable() {
	if m == nil {
		return
	}
	m.serviceErrors.Inc()
}

func (m *SignerMetrics) SetLastNonce(arena string, nonce uint64) {
	if m == nil {
		return
	}
	m.lastNonce.WithLabelValues(arena).Set(float64(nonce))
}
