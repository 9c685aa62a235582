// Package esim is the client of the eSIM provisioning API.
package esim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samber/lo"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/esimtrip/cashier/pkg/config"
)

var ErrNoCodes = errors.New("provisioning returned no codes")

// Code is one issued eSIM; ImageSource is a URL or data URI of its QR code.
type Code struct {
	Name        string `json:"name"`
	ImageSource string `json:"image"`
}

type issueRequest struct {
	PlanID   string `json:"plan_id"`
	Quantity int64  `json:"quantity"`
}

type issuedCode struct {
	Name      string `json:"name"`
	Image     string `json:"image"`
	QRCode    string `json:"qr_code"`
	QRCodeURL string `json:"qrcode_url"`
}

type issueResponse struct {
	Codes []issuedCode `json:"codes"`
}

const dataURIPrefix = "data:image/png;base64,"

// NormalizeImage keeps absolute URLs and data URIs, and treats anything else
// as bare base64 PNG data.
func NormalizeImage(src string) string {
	src = strings.TrimSpace(src)
	lower := strings.ToLower(src)
	if src == "" || strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "data:") {
		return src
	}
	return dataURIPrefix + src
}

type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     *zap.SugaredLogger
}

// newBreaker trips once at least 3 requests were seen and 60% of them failed.
func newBreaker(name string) *gobreaker.CircuitBreaker[[]byte] {
	var st gobreaker.Settings
	st.Name = name
	st.Timeout = 30 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= 3 && failureRatio >= 0.6
	}
	return gobreaker.NewCircuitBreaker[[]byte](st)
}

func NewClient(cfg *config.Config, log *zap.SugaredLogger) *Client {
	p := cfg.Provisioning
	c := resty.New().
		SetBaseURL(strings.TrimRight(p.BaseURL, "/")).
		SetHeader("X-API-Key", p.APIKey).
		SetHeader("Accept", "application/json").
		SetTimeout(p.Timeout)
	return &Client{http: c, breaker: newBreaker("esim-provisioning"), log: log}
}

// Issue provisions quantity eSIMs of planID.
func (c *Client) Issue(ctx context.Context, planID string, quantity int64) ([]Code, error) {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(&issueRequest{PlanID: planID, Quantity: quantity}).
			Post("/esims")
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode(), strings.TrimSpace(string(resp.Body())))
		}
		return resp.Body(), nil
	})
	if err != nil {
		c.log.Warnw("esim_provision_failed", "plan_id", planID, "breaker_state", c.breaker.State().String(), "err", err)
		return nil, fmt.Errorf("provision plan %s: %w", planID, err)
	}

	var out issueResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("provision plan %s: decode response: %w", planID, err)
	}
	codes := lo.FilterMap(out.Codes, func(ic issuedCode, _ int) (Code, bool) {
		img := NormalizeImage(lo.CoalesceOrEmpty(ic.Image, ic.QRCode, ic.QRCodeURL))
		return Code{Name: ic.Name, ImageSource: img}, img != "" || ic.Name != ""
	})
	if len(codes) == 0 {
		return nil, fmt.Errorf("provision plan %s: %w", planID, ErrNoCodes)
	}
	return codes, nil
}

var Module = fx.Options(
	fx.Provide(NewClient),
)
