package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Registry agrupa los collectors del proceso. Se expone por HTTP (/metrics) y,
// para ejecuciones de vida corta, se puede empujar a un Pushgateway.
type Registry struct {
	reg     *prometheus.Registry
	pushURL string
	job     string
}

func NewRegistry(pushURL, job string) *Registry {
	return &Registry{reg: prometheus.NewRegistry(), pushURL: pushURL, job: job}
}

func (r *Registry) MustRegister(cs ...prometheus.Collector) { r.reg.MustRegister(cs...) }

func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

// PushEnabled indica si hay Pushgateway configurado.
func (r *Registry) PushEnabled() bool { return r.pushURL != "" }

// Push envía el estado actual al Pushgateway. Sin URL configurada no hace nada.
func (r *Registry) Push(ctx context.Context) error {
	if !r.PushEnabled() {
		return nil
	}
	return push.New(r.pushURL, r.job).Gatherer(r.reg).PushContext(ctx)
}
