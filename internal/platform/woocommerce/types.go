package woocommerce

import (
	"github.com/samber/lo"
	"github.com/spf13/cast"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusOnHold     OrderStatus = "on-hold"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// MetaData is a single key/value entry of an order or line item meta bag.
// Values are strings for everything this service writes, but plugins may
// store arbitrary JSON.
type MetaData struct {
	ID    int64  `json:"id,omitempty"`
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type MetaBag []MetaData

// Get returns the stringified value of the first entry with key.
func (m MetaBag) Get(key string) (string, bool) {
	entry, ok := lo.Find(m, func(e MetaData) bool { return e.Key == key })
	if !ok {
		return "", false
	}
	return cast.ToString(entry.Value), true
}

// Has reports whether key is present with a non-empty value.
func (m MetaBag) Has(key string) bool {
	v, ok := m.Get(key)
	return ok && v != ""
}

// Merge upserts entries by key and returns the result.
func (m MetaBag) Merge(entries ...MetaData) MetaBag {
	out := append(MetaBag(nil), m...)
	for _, e := range entries {
		_, idx, found := lo.FindIndexOf(out, func(x MetaData) bool { return x.Key == e.Key })
		if found {
			out[idx].Value = e.Value
			continue
		}
		out = append(out, MetaData{Key: e.Key, Value: e.Value})
	}
	return out
}

type Billing struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (b Billing) Name() string {
	switch {
	case b.FirstName != "" && b.LastName != "":
		return b.LastName + b.FirstName
	case b.FirstName != "":
		return b.FirstName
	default:
		return b.LastName
	}
}

type LineItem struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	ProductID int64   `json:"product_id"`
	Quantity  int64   `json:"quantity"`
	Subtotal  string  `json:"subtotal"`
	Total     string  `json:"total"`
	MetaData  MetaBag `json:"meta_data"`
}

type Order struct {
	ID        int64       `json:"id"`
	Number    string      `json:"number"`
	Status    OrderStatus `json:"status"`
	Currency  string      `json:"currency"`
	Total     string      `json:"total"`
	Billing   Billing     `json:"billing"`
	LineItems []LineItem  `json:"line_items"`
	MetaData  MetaBag     `json:"meta_data"`
}

// OrderUpdate is the body of PUT /orders/{id}. Meta entries are upserted by key.
type OrderUpdate struct {
	Status   OrderStatus `json:"status,omitempty"`
	MetaData []MetaData  `json:"meta_data,omitempty"`
}

type OrderNote struct {
	ID           int64  `json:"id,omitempty"`
	Note         string `json:"note"`
	CustomerNote bool   `json:"customer_note"`
}

// Meta builds a string-valued meta entry.
func Meta(key, value string) MetaData { return MetaData{Key: key, Value: value} }
