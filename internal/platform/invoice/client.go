// Package invoice issues B2C e-invoices through an ezPay style API.
package invoice

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samber/lo"
	"github.com/spf13/cast"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/esimtrip/cashier/internal/platform/newebpay"
	"github.com/esimtrip/cashier/pkg/config"
	"github.com/esimtrip/cashier/pkg/money"
)

const apiVersion = "1.5"

var (
	ErrRejected          = errors.New("invoice rejected")
	ErrCheckCodeMismatch = errors.New("invoice check code mismatch")
)

type Item struct {
	Name        string
	Count       int64
	Unit        string
	PriceCents  int64
	AmountCents int64
}

type IssueRequest struct {
	MerchantOrderNo string
	BuyerName       string
	BuyerEmail      string
	// TotalCents is tax inclusive and must equal the sum of item amounts.
	TotalCents int64
	Items      []Item
}

type Invoice struct {
	InvoiceNumber  string
	RandomNum      string
	CreateTime     string
	InvoiceTransNo string
}

type apiResponse struct {
	Status  string `json:"Status"`
	Message string `json:"Message"`
	Result  string `json:"Result"`
}

type Client struct {
	http    *resty.Client
	codec   *newebpay.Codec
	cfg     config.InvoiceConfig
	log     *zap.SugaredLogger
	now     func() time.Time
	initErr error
}

func NewClient(cfg *config.Config, log *zap.SugaredLogger) *Client {
	ic := cfg.Invoice
	c := &Client{
		http: resty.New().SetTimeout(ic.Timeout),
		cfg:  ic,
		log:  log,
		now:  time.Now,
	}
	if ic.Enabled {
		c.codec, c.initErr = newebpay.NewCodec(ic.HashKey, ic.HashIV)
		if c.initErr != nil {
			log.Errorw("invoice credentials invalid; issuance will fail", "err", c.initErr)
		}
	}
	return c
}

func (c *Client) Enabled() bool { return c.cfg.Enabled }

// wholeUnits restates items in whole currency units, which is all a B2C
// invoice accepts. Amounts are reallocated by their cent amounts so they still
// sum to total; an item keeps its count only when its amount divides evenly.
func wholeUnits(items []Item, total int64) (counts, prices, amounts []int64) {
	amounts = money.Allocate(total, lo.Map(items, func(it Item, _ int) int64 { return it.AmountCents }))
	counts = make([]int64, len(items))
	prices = make([]int64, len(items))
	for i, it := range items {
		counts[i], prices[i] = 1, amounts[i]
		if n := max(it.Count, 1); amounts[i]%n == 0 {
			counts[i], prices[i] = n, amounts[i]/n
		}
	}
	return counts, prices, amounts
}

func (c *Client) postData(req *IssueRequest) url.Values {
	total := money.ToUnits(req.TotalCents)
	exclusive, tax := money.SplitTax(total, c.cfg.TaxRateBP)
	counts, prices, amounts := wholeUnits(req.Items, total)
	ints := func(xs []int64) string {
		return strings.Join(lo.Map(xs, func(x int64, _ int) string { return strconv.FormatInt(x, 10) }), "|")
	}
	v := url.Values{}
	v.Set("RespondType", "JSON")
	v.Set("Version", apiVersion)
	v.Set("TimeStamp", strconv.FormatInt(c.now().Unix(), 10))
	v.Set("MerchantOrderNo", req.MerchantOrderNo)
	v.Set("Status", "1")
	v.Set("Category", "B2C")
	v.Set("BuyerName", lo.CoalesceOrEmpty(req.BuyerName, req.BuyerEmail, "Customer"))
	v.Set("BuyerEmail", req.BuyerEmail)
	v.Set("PrintFlag", "N")
	v.Set("TaxType", "1")
	v.Set("TaxRate", money.FormatRate(c.cfg.TaxRateBP))
	v.Set("Amt", strconv.FormatInt(exclusive, 10))
	v.Set("TaxAmt", strconv.FormatInt(tax, 10))
	v.Set("TotalAmt", strconv.FormatInt(total, 10))
	v.Set("ItemName", strings.Join(lo.Map(req.Items, func(it Item, _ int) string { return it.Name }), "|"))
	v.Set("ItemCount", ints(counts))
	v.Set("ItemUnit", strings.Join(lo.Map(req.Items, func(it Item, _ int) string { return lo.CoalesceOrEmpty(it.Unit, c.cfg.ItemUnit) }), "|"))
	v.Set("ItemPrice", ints(prices))
	v.Set("ItemAmt", ints(amounts))
	return v
}

// Issue creates the invoice and verifies the response check code.
func (c *Client) Issue(ctx context.Context, req *IssueRequest) (*Invoice, error) {
	if c.initErr != nil {
		return nil, c.initErr
	}
	if c.codec == nil {
		return nil, errors.New("invoice issuance is disabled")
	}
	postData, err := c.codec.Encrypt(c.postData(req).Encode())
	if err != nil {
		return nil, fmt.Errorf("encrypt invoice request: %w", err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"MerchantID_": c.cfg.MerchantID,
			"PostData_":   postData,
		}).
		Post(c.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("issue invoice: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("issue invoice: status %d", resp.StatusCode())
	}

	var ar apiResponse
	if err := json.Unmarshal(resp.Body(), &ar); err != nil {
		return nil, fmt.Errorf("issue invoice: decode response: %w", err)
	}
	if !strings.EqualFold(ar.Status, "SUCCESS") {
		return nil, fmt.Errorf("%w: %s %s", ErrRejected, ar.Status, ar.Message)
	}
	var result map[string]any
	if err := json.Unmarshal([]byte(ar.Result), &result); err != nil {
		return nil, fmt.Errorf("issue invoice: decode result: %w", err)
	}
	if err := c.verify(result); err != nil {
		return nil, err
	}
	inv := &Invoice{
		InvoiceNumber:  cast.ToString(result["InvoiceNumber"]),
		RandomNum:      cast.ToString(result["RandomNum"]),
		CreateTime:     cast.ToString(result["CreateTime"]),
		InvoiceTransNo: cast.ToString(result["InvoiceTransNo"]),
	}
	c.log.Infow("invoice_issued", "merchant_order_no", req.MerchantOrderNo, "invoice_number", inv.InvoiceNumber)
	return inv, nil
}

func (c *Client) verify(result map[string]any) error {
	want := CheckCode(result, c.cfg.HashKey, c.cfg.HashIV)
	got := strings.ToUpper(cast.ToString(result["CheckCode"]))
	if subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		return ErrCheckCodeMismatch
	}
	return nil
}

var checkCodeFields = []string{"InvoiceTransNo", "MerchantID", "MerchantOrderNo", "RandomNum", "TotalAmt"}

// CheckCode computes the response check code over the sorted result fields
// wrapped in HashIV and HashKey.
func CheckCode(result map[string]any, hashKey, hashIV string) string {
	v := url.Values{}
	for _, f := range checkCodeFields {
		v.Set(f, cast.ToString(result[f]))
	}
	raw := "HashIV=" + hashIV + "&" + v.Encode() + "&HashKey=" + hashKey
	sum := sha256.Sum256([]byte(raw))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

var Module = fx.Options(
	fx.Provide(NewClient),
)
