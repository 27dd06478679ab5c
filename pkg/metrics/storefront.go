package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics counts the discount-affecting decisions the pricing and
// checkout paths make, labeled by outcome so alerts can watch failure rates.
type StorefrontMetrics struct {
	quotes            prometheus.Counter
	couponValidations *prometheus.CounterVec
	checkouts         *prometheus.CounterVec
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	quotes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_quotes_total",
		Help: "Cart quotes computed.",
	})
	couponValidations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_validations_total",
		Help: "Coupon validations by outcome.",
	}, []string{"outcome"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkouts_total",
		Help: "Checkout confirmations by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(quotes, couponValidations, checkouts)
	return &StorefrontMetrics{
		quotes:            quotes,
		couponValidations: couponValidations,
		checkouts:         checkouts,
	}
}

// IncQuote counts one computed cart quote.
func (m *StorefrontMetrics) IncQuote() {
	if m == nil || m.quotes == nil {
		return
	}
	m.quotes.Inc()
}

// IncCouponValidation counts a coupon validation with the given outcome.
func (m *StorefrontMetrics) IncCouponValidation(outcome string) {
	if m == nil || m.couponValidations == nil {
		return
	}
	m.couponValidations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncCheckout counts a checkout confirmation with the given outcome.
func (m *StorefrontMetrics) IncCheckout(outcome string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(outcome string) string {
	if outcome == "" {
		return "unknown"
	}
	return outcome
}
