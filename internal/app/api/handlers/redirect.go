package handlers

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"

	nh "github.com/esimtrip/cashier/internal/app/service/notification_handler"
	"github.com/esimtrip/cashier/internal/platform/newebpay"
	"github.com/esimtrip/cashier/pkg/config"
)

// Display statuses shown on the storefront return pages.
const (
	DisplaySuccess = "success"
	DisplayPending = "pending"
	DisplayFail    = "fail"
	DisplayError   = "error"
)

// displayStatus maps a decoded delivery to the coarse status the shopper sees.
func displayStatus(d *nh.Decision) string {
	if d == nil || d.Result == nil {
		return DisplayError
	}
	switch d.Outcome {
	case newebpay.OutcomePaid:
		return DisplaySuccess
	case newebpay.OutcomeOffsitePending:
		return DisplayPending
	}
	return DisplayFail
}

// ReceiptClaims are the facts shown on the return page, signed so the page
// can tell them apart from a hand-edited query string.
type ReceiptClaims struct {
	Status      string `json:"status"`
	OrderNo     string `json:"order_no,omitempty"`
	PaymentType string `json:"payment_type,omitempty"`
	Amount      int64  `json:"amount,omitempty"`
	BankCode    string `json:"bank_code,omitempty"`
	CodeNo      string `json:"code_no,omitempty"`
	ExpireDate  string `json:"expire_date,omitempty"`
	jwt.StandardClaims
}

func redirectQuery(status string, d *nh.Decision) url.Values {
	q := url.Values{}
	q.Set("status", status)
	if d == nil || d.Result == nil {
		return q
	}
	res := d.Result
	setIf := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	setIf("order_no", res.MerchantOrderNo)
	setIf("payment_type", string(res.PaymentType))
	setIf("trade_no", res.TradeNo)
	if res.Amount > 0 {
		q.Set("amount", strconv.FormatInt(res.Amount, 10))
	}
	if o := res.Offsite; o != nil {
		setIf("bank_code", o.BankCode)
		setIf("code_no", o.CodeNo)
		setIf("store_type", o.StoreType)
		setIf("expire_date", strings.TrimSpace(o.ExpireDate+" "+o.ExpireTime))
	}
	return q
}

func signReceipt(cfg config.StorefrontConfig, q url.Values, now time.Time) (string, error) {
	amount, _ := strconv.ParseInt(q.Get("amount"), 10, 64)
	claims := ReceiptClaims{
		Status:      q.Get("status"),
		OrderNo:     q.Get("order_no"),
		PaymentType: q.Get("payment_type"),
		Amount:      amount,
		BankCode:    q.Get("bank_code"),
		CodeNo:      q.Get("code_no"),
		ExpireDate:  q.Get("expire_date"),
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(cfg.ReceiptTTL).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.ReceiptSecret))
}

// ParseReceipt verifies a receipt token issued with secret.
func ParseReceipt(token, secret string) (*ReceiptClaims, error) {
	var claims ReceiptClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	return &claims, nil
}

// appendURLQuery merges q into target's existing query. An unparseable target
// is returned with the query appended verbatim.
func appendURLQuery(target string, q url.Values) string {
	u, err := url.Parse(target)
	if err != nil {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		return target + sep + q.Encode()
	}
	existing := u.Query()
	for k, vs := range q {
		existing[k] = vs
	}
	u.RawQuery = existing.Encode()
	return u.String()
}
