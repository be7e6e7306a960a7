package order

// PaymentEventKind is the closed set of payment-processor notifications the
// settlement handler acts on. Anything else parses to KindUnrecognized and is
// acknowledged without effect.
type PaymentEventKind int

const (
	KindUnrecognized PaymentEventKind = iota
	KindPaymentSucceeded
	KindPaymentFailed
	KindChargeRefunded
)

func ParsePaymentEventKind(s string) PaymentEventKind {
	switch s {
	case "payment_intent.succeeded":
		return KindPaymentSucceeded
	case "payment_intent.payment_failed":
		return KindPaymentFailed
	case "charge.refunded":
		return KindChargeRefunded
	default:
		return KindUnrecognized
	}
}

// Ledger event types recorded for each settlement outcome. These also key
// the idempotency lookup together with the upstream event id.
const (
	eventPaymentSucceeded = "payment_succeeded"
	eventPaymentFailed    = "payment_failed"
	eventChargeRefunded   = "charge_refunded"
	eventTokenIssued      = "token_issued"
	eventRedeemed         = "redeemed"
	eventPouring          = "pouring"
)

func (k PaymentEventKind) ledgerType() string {
	switch k {
	case KindPaymentSucceeded:
		return eventPaymentSucceeded
	case KindPaymentFailed:
		return eventPaymentFailed
	case KindChargeRefunded:
		return eventChargeRefunded
	default:
		return ""
	}
}

// PaymentEvent is the decoded, signature-verified settlement notification.
type PaymentEvent struct {
	ID              string
	Kind            PaymentEventKind
	RawKind         string
	OrderID         string
	PaymentIntentID string
	AmountCents     int64
	FailureReason   string
}
