// Package metrics expone las métricas Prometheus del servicio.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jhoicas/Convenios-api/internal/application/ports"
)

var _ ports.SweepMetrics = (*Prometheus)(nil)

// Prometheus implementa ports.SweepMetrics y registra además las peticiones HTTP.
type Prometheus struct {
	sweepRuns            *prometheus.CounterVec
	sweepDuration        prometheus.Histogram
	conveniosExpired     prometheus.Counter
	companiesDisabled    prometheus.Counter
	conveniosFailed      prometheus.Counter
	notificationsEmitted *prometheus.CounterVec
	deliveryFailures     *prometheus.CounterVec
	httpRequests         *prometheus.CounterVec
	httpDuration         *prometheus.HistogramVec
}

// New registra las métricas en reg (prometheus.DefaultRegisterer en producción).
func New(reg prometheus.Registerer) *Prometheus {
	f := promauto.With(reg)
	return &Prometheus{
		sweepRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "convenios_sweep_runs_total",
			Help: "Barridos ejecutados por resultado (ok, error)",
		}, []string{"result"}),
		sweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "convenios_sweep_duration_seconds",
			Help:    "Duración de cada barrido",
			Buckets: []float64{.1, .5, 1, 5, 15, 30, 60, 120, 300},
		}),
		conveniosExpired: f.NewCounter(prometheus.CounterOpts{
			Name: "convenios_expired_total",
			Help: "Convenios marcados como VENCIDO",
		}),
		companiesDisabled: f.NewCounter(prometheus.CounterOpts{
			Name: "convenios_companies_disabled_total",
			Help: "Empresas deshabilitadas por quedarse sin convenios aprobados",
		}),
		conveniosFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "convenios_sweep_failures_total",
			Help: "Convenios cuyo procesamiento falló dentro de un barrido",
		}),
		notificationsEmitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "convenios_notifications_emitted_total",
			Help: "Notificaciones persistidas por tipo y prioridad",
		}, []string{"type", "priority"}),
		deliveryFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "convenios_delivery_failures_total",
			Help: "Fallos de entrega secundaria por canal (realtime, email)",
		}, []string{"channel"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "convenios_http_requests_total",
			Help: "Peticiones HTTP por método, ruta y estado",
		}, []string{"method", "path", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "convenios_http_request_duration_seconds",
			Help:    "Latencia de peticiones HTTP",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 5},
		}, []string{"method", "path"}),
	}
}

func (p *Prometheus) SweepFinished(result string, d time.Duration) {
	p.sweepRuns.WithLabelValues(result).Inc()
	p.sweepDuration.Observe(d.Seconds())
}

func (p *Prometheus) ConvenioExpired() { p.conveniosExpired.Inc() }

func (p *Prometheus) CompanyDisabled() { p.companiesDisabled.Inc() }

func (p *Prometheus) ConvenioFailed() { p.conveniosFailed.Inc() }

func (p *Prometheus) NotificationEmitted(notificationType, priority string) {
	p.notificationsEmitted.WithLabelValues(notificationType, priority).Inc()
}

func (p *Prometheus) DeliveryFailed(channel string) {
	p.deliveryFailures.WithLabelValues(channel).Inc()
}

// HTTPRequest registra una petición. path debe ser la ruta de Fiber, no la URL cruda.
func (p *Prometheus) HTTPRequest(method, path string, status int, d time.Duration) {
	p.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
