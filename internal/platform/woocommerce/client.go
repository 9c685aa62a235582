package woocommerce

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/esimtrip/cashier/pkg/config"
)

const apiPrefix = "/wp-json/wc/v3"

// Client talks to the WooCommerce REST API with consumer key basic auth.
type Client struct {
	http *resty.Client
	log  *zap.SugaredLogger
}

func NewClient(cfg *config.Config, log *zap.SugaredLogger) (*Client, error) {
	wc := cfg.WooCommerce
	if wc.BaseURL == "" {
		log.Warnw("woocommerce base url is empty; order calls will fail")
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(wc.BaseURL, "/")+apiPrefix).
		SetBasicAuth(wc.ConsumerKey, wc.ConsumerSecret).
		SetHeader("Accept", "application/json").
		SetTimeout(wc.Timeout)
	return &Client{http: c, log: log}, nil
}

// NewWithResty is used by tests to point the client at an httptest server.
func NewWithResty(c *resty.Client, log *zap.SugaredLogger) *Client {
	return &Client{http: c, log: log}
}

func checkResponse(op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("woocommerce %s: %w", op, err)
	}
	if resp.IsError() {
		return fmt.Errorf("woocommerce %s: status %d: %s", op, resp.StatusCode(), strings.TrimSpace(string(resp.Body())))
	}
	return nil
}

// ListOrders returns one page of orders, newest first.
func (c *Client) ListOrders(ctx context.Context, page, perPage int) ([]*Order, error) {
	var orders []*Order
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"page":     strconv.Itoa(page),
			"per_page": strconv.Itoa(perPage),
			"orderby":  "date",
			"order":    "desc",
		}).
		SetResult(&orders).
		Get("/orders")
	if err := checkResponse("list orders", resp, err); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) GetOrder(ctx context.Context, id int64) (*Order, error) {
	var o Order
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetResult(&o).
		Get("/orders/{id}")
	if err := checkResponse("get order", resp, err); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) UpdateOrder(ctx context.Context, id int64, upd *OrderUpdate) (*Order, error) {
	if upd == nil {
		return nil, errors.New("woocommerce update order: nil update")
	}
	var o Order
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetBody(upd).
		SetResult(&o).
		Put("/orders/{id}")
	if err := checkResponse("update order", resp, err); err != nil {
		return nil, err
	}
	c.log.Debugw("woocommerce_order_updated", "order_id", id, "status", upd.Status, "meta_keys", len(upd.MetaData))
	return &o, nil
}

// CreateNote adds a private (customer == false) or customer-visible note.
func (c *Client) CreateNote(ctx context.Context, id int64, note string, customer bool) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetBody(&OrderNote{Note: note, CustomerNote: customer}).
		Post("/orders/{id}/notes")
	return checkResponse("create note", resp, err)
}

var Module = fx.Options(
	fx.Provide(NewClient),
)
