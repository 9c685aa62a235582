package newebpay

import "strings"

type Outcome string

const (
	OutcomeNone           Outcome = "none"
	OutcomeOffsitePending Outcome = "offsite_pending"
	OutcomePaid           Outcome = "paid"
)

const StatusSuccess = "SUCCESS"

// Classify decides what a transaction result means for the order. status is
// the out-of-band gateway status, which is the only reliable settlement
// signal for card payments.
func Classify(res *TransactionResult, status string) Outcome {
	if res == nil {
		return OutcomeNone
	}
	if res.PaymentType.Offsite() && res.PayMoment == "" {
		return OutcomeOffsitePending
	}
	if res.PayMoment != "" {
		return OutcomePaid
	}
	if res.PaymentType == PaymentTypeCreditCard && strings.EqualFold(strings.TrimSpace(status), StatusSuccess) {
		return OutcomePaid
	}
	return OutcomeNone
}

// ResolveStatus picks the authoritative status: the form field posted next to
// TradeInfo, else the decrypted top-level Status.
func ResolveStatus(env *Envelope, p *Payload) string {
	if env != nil && strings.TrimSpace(env.Status) != "" {
		return strings.TrimSpace(env.Status)
	}
	if p != nil {
		return strings.TrimSpace(p.Status)
	}
	return ""
}
