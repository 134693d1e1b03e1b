package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики оформления заказов.
type OrderMetrics struct {
	// Счётчики результатов
	ordersCreated  prometheus.Counter
	ordersRejected *prometheus.CounterVec

	// Гистограммы
	orderDuration prometheus.Histogram
	linesPerOrder prometheus.Histogram

	// Счётчик применённых обновлений остатков
	stockUpdates prometheus.Counter
}

// Причины отказа для лейбла reason.
const (
	RejectReasonCustomerNotFound  = "customer_not_found"
	RejectReasonNoProductsFound   = "no_products_found"
	RejectReasonProductNotFound   = "product_not_found"
	RejectReasonInsufficientStock = "insufficient_stock"
)

// NewOrderMetrics создаёт новый экземпляр метрик заказов.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_orders_created_total",
			Help: "Total number of orders successfully created",
		}),
		ordersRejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "shop_orders_rejected_total",
			Help: "Total number of order requests rejected during validation",
		}, []string{"reason"}),
		orderDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "shop_order_create_duration_seconds",
			Help:    "Duration of order creation in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		linesPerOrder: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "shop_order_lines",
			Help:    "Number of lines per created order",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34},
		}),
		stockUpdates: registerCounter(registerer, prometheus.CounterOpts{
			Name: "shop_stock_updates_total",
			Help: "Total number of stock quantity updates applied",
		}),
	}
}

// RecordOrderCreated учитывает успешно созданный заказ.
func (m *OrderMetrics) RecordOrderCreated(lines int) {
	m.ordersCreated.Inc()
	m.linesPerOrder.Observe(float64(lines))
}

// RecordOrderRejected учитывает отказ с указанием причины.
func (m *OrderMetrics) RecordOrderRejected(reason string) {
	m.ordersRejected.WithLabelValues(reason).Inc()
}

// RecordOrderDuration фиксирует длительность оформления заказа.
func (m *OrderMetrics) RecordOrderDuration(d time.Duration) {
	m.orderDuration.Observe(d.Seconds())
}

// RecordStockUpdates учитывает применённые обновления остатков.
func (m *OrderMetrics) RecordStockUpdates(n int) {
	m.stockUpdates.Add(float64(n))
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}
