package sim

// CommissionFee calculates the commission for a given share quantity,
// returned in account currency.
type CommissionFee interface {
	Calculate(quantity float64) float64
}

// Broker selects a commission model.
type Broker string

const (
	BrokerInteractiveBroker Broker = "interactive_broker"
	BrokerZero              Broker = "zero_commission"
)

// GetCommissionFee returns the model for a broker, defaulting to zero
// commission for unknown brokers.
func GetCommissionFee(broker Broker) CommissionFee {
	switch broker {
	case BrokerInteractiveBroker:
		return NewInteractiveBrokerCommissionFee()
	case BrokerZero:
		return NewZeroCommissionFee()
	default:
		return NewZeroCommissionFee()
	}
}

// ZeroCommissionFee charges nothing.
type ZeroCommissionFee struct{}

// NewZeroCommissionFee creates a zero-commission model.
func NewZeroCommissionFee() *ZeroCommissionFee {
	return &ZeroCommissionFee{}
}

// Calculate implements CommissionFee.
func (f *ZeroCommissionFee) Calculate(_ float64) float64 {
	return 0
}

// InteractiveBrokerCommissionFee models the IBKR fixed tier for US stocks:
// 0.005 per share with a 1.00 minimum per order.
type InteractiveBrokerCommissionFee struct {
	perShare float64
	minimum  float64
}

// NewInteractiveBrokerCommissionFee creates the IBKR fixed-tier model.
func NewInteractiveBrokerCommissionFee() *InteractiveBrokerCommissionFee {
	return &InteractiveBrokerCommissionFee{
		perShare: 0.005,
		minimum:  1.0,
	}
}

// Calculate implements CommissionFee.
func (f *InteractiveBrokerCommissionFee) Calculate(quantity float64) float64 {
	if quantity < 0 {
		quantity = -quantity
	}

	fee := f.perShare * quantity
	if fee < f.minimum {
		return f.minimum
	}

	return fee
}
