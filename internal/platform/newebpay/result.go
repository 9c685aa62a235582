package newebpay

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cast"
)

type PaymentType string

const (
	PaymentTypeUnknown          PaymentType = "UNKNOWN"
	PaymentTypeCreditCard       PaymentType = "CREDIT_CARD"
	PaymentTypeVirtualAccount   PaymentType = "VIRTUAL_ACCOUNT"
	PaymentTypeWebATM           PaymentType = "WEB_ATM"
	PaymentTypeConvenienceStore PaymentType = "CONVENIENCE_STORE"
	PaymentTypeBarcode          PaymentType = "BARCODE"
	PaymentTypeWallet           PaymentType = "WALLET"
)

// gateway PaymentType codes
var paymentTypeCodes = map[string]PaymentType{
	"CREDIT":     PaymentTypeCreditCard,
	"UNIONPAY":   PaymentTypeCreditCard,
	"VACC":       PaymentTypeVirtualAccount,
	"WEBATM":     PaymentTypeWebATM,
	"CVS":        PaymentTypeConvenienceStore,
	"BARCODE":    PaymentTypeBarcode,
	"LINEPAY":    PaymentTypeWallet,
	"ESUNWALLET": PaymentTypeWallet,
	"TAIWANPAY":  PaymentTypeWallet,
	"APPLEPAY":   PaymentTypeWallet,
	"GOOGLEPAY":  PaymentTypeWallet,
	"SAMSUNGPAY": PaymentTypeWallet,
	"EZPWECHAT":  PaymentTypeWallet,
	"EZPALIPAY":  PaymentTypeWallet,
	"TWQR":       PaymentTypeWallet,
}

func ParsePaymentType(code string) PaymentType {
	code = strings.ToUpper(strings.TrimSpace(code))
	if t, ok := paymentTypeCodes[code]; ok {
		return t
	}
	// already-normalized names round trip
	switch t := PaymentType(code); t {
	case PaymentTypeCreditCard, PaymentTypeVirtualAccount, PaymentTypeWebATM,
		PaymentTypeConvenienceStore, PaymentTypeBarcode, PaymentTypeWallet:
		return t
	}
	return PaymentTypeUnknown
}

// Offsite reports whether funds for this type settle after a code is issued.
func (t PaymentType) Offsite() bool {
	return t == PaymentTypeVirtualAccount || t == PaymentTypeConvenienceStore || t == PaymentTypeWebATM
}

// PayMomentAliases lists the field names the gateway has used for the
// settlement time, in lookup order.
var PayMomentAliases = []string{"PayTime", "PayDate", "PaymentTime", "PaidTime", "PayAt"}

// TransactionResult is the typed view over a payload's Result. Only the detail
// block matching PaymentType is populated.
type TransactionResult struct {
	MerchantOrderNo string
	MerchantID      string
	PaymentType     PaymentType
	RawPaymentType  string
	PayMoment       string
	Amount          int64
	TradeNo         string
	IP              string
	EscrowBank      string

	Offsite *OffsiteDetail
	Card    *CardDetail
	Wallet  *WalletDetail
}

type OffsiteDetail struct {
	BankCode   string
	CodeNo     string
	StoreType  string
	ExpireDate string
	ExpireTime string
	Barcodes   []string
	// PayBankCode and PayerAccount5Code are reported once a transfer settles.
	PayBankCode       string
	PayerAccount5Code string
}

type CardDetail struct {
	AuthCode    string
	RespondCode string
	Card4No     string
	Card6No     string
	Inst        string
	ECI         string
}

type WalletDetail struct {
	PayerAccount string
}

// Paid reports whether a settlement moment is present.
func (r *TransactionResult) Paid() bool {
	return r != nil && r.PayMoment != ""
}

// ParseTransactionResult validates the payload at the normalizer boundary.
// The flat top-level fields are consulted when Result carries no order number.
func ParseTransactionResult(p *Payload) (*TransactionResult, error) {
	if p == nil {
		return nil, ErrUnparseableResult
	}
	src := p.Result
	if str(src, "MerchantOrderNo") == "" {
		src = p.Fields
	}
	orderNo := str(src, "MerchantOrderNo")
	if orderNo == "" {
		return nil, ErrUnparseableResult
	}

	raw := str(src, "PaymentType")
	res := &TransactionResult{
		MerchantOrderNo: orderNo,
		MerchantID:      str(src, "MerchantID"),
		PaymentType:     ParsePaymentType(raw),
		RawPaymentType:  raw,
		PayMoment:       firstNonEmpty(src, PayMomentAliases...),
		TradeNo:         str(src, "TradeNo"),
		IP:              str(src, "IP"),
		EscrowBank:      str(src, "EscrowBank"),
	}
	if amt := str(src, "Amt"); amt != "" {
		n, err := cast.ToInt64E(amt)
		if err != nil {
			return nil, fmt.Errorf("invalid Amt %q: %w", amt, err)
		}
		res.Amount = n
	}

	switch {
	case res.PaymentType.Offsite() || res.PaymentType == PaymentTypeBarcode:
		res.Offsite = &OffsiteDetail{
			BankCode:          str(src, "BankCode"),
			CodeNo:            firstNonEmpty(src, "CodeNo", "PaymentNo"),
			StoreType:         str(src, "StoreType"),
			ExpireDate:        str(src, "ExpireDate"),
			ExpireTime:        str(src, "ExpireTime"),
			PayBankCode:       str(src, "PayBankCode"),
			PayerAccount5Code: str(src, "PayerAccount5Code"),
			Barcodes: lo.Filter([]string{str(src, "Barcode_1"), str(src, "Barcode_2"), str(src, "Barcode_3")},
				func(s string, _ int) bool { return s != "" }),
		}
	case res.PaymentType == PaymentTypeCreditCard:
		res.Card = &CardDetail{
			AuthCode:    str(src, "Auth"),
			RespondCode: str(src, "RespondCode"),
			Card4No:     str(src, "Card4No"),
			Card6No:     str(src, "Card6No"),
			Inst:        str(src, "Inst"),
			ECI:         str(src, "ECI"),
		}
	case res.PaymentType == PaymentTypeWallet:
		res.Wallet = &WalletDetail{PayerAccount: firstNonEmpty(src, "PayerAccount", "PayerAccount5Code")}
	}
	return res, nil
}

func str(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	return strings.TrimSpace(cast.ToString(m[key]))
}

func firstNonEmpty(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v := str(m, k); v != "" {
			return v
		}
	}
	return ""
}
