package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg                    *prometheus.Registry
	OrdersPlaced           prometheus.Counter
	BasketMutations        prometheus.Counter
	StoreWriteFailures     prometheus.Counter
	NotificationsPublished *prometheus.CounterVec
	ActiveSubscriptions    prometheus.Gauge
	CatalogSize            prometheus.Gauge
	OrderTotal             prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{Name: "shop_orders_placed_total"})
	basketMutations := prometheus.NewCounter(prometheus.CounterOpts{Name: "shop_basket_mutations_total"})
	storeWriteFailures := prometheus.NewCounter(prometheus.CounterOpts{Name: "shop_store_write_failures_total"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "shop_notifications_published_total"}, []string{"kind"})
	activeSubs := prometheus.NewGauge(prometheus.GaugeOpts{Name: "shop_active_subscriptions"})
	catalogSize := prometheus.NewGauge(prometheus.GaugeOpts{Name: "shop_catalog_size"})
	orderTotal := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "shop_order_total_amount",
		Buckets: []float64{1, 2.5, 5, 10, 25, 50, 100},
	})

	r.MustRegister(ordersPlaced, basketMutations, storeWriteFailures, notifications, activeSubs, catalogSize, orderTotal)
	return &Registry{
		reg:                    r,
		OrdersPlaced:           ordersPlaced,
		BasketMutations:        basketMutations,
		StoreWriteFailures:     storeWriteFailures,
		NotificationsPublished: notifications,
		ActiveSubscriptions:    activeSubs,
		CatalogSize:            catalogSize,
		OrderTotal:             orderTotal,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
