package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/esimtrip/cashier/internal/app/service/order"
	"github.com/esimtrip/cashier/internal/platform/esim"
	"github.com/esimtrip/cashier/internal/platform/invoice"
	"github.com/esimtrip/cashier/internal/platform/mailer"
	"github.com/esimtrip/cashier/internal/platform/newebpay"
	"github.com/esimtrip/cashier/internal/platform/woocommerce"
	"github.com/esimtrip/cashier/pkg/config"
	"github.com/esimtrip/cashier/pkg/logctx"
	"github.com/esimtrip/cashier/pkg/metrics"
	"github.com/esimtrip/cashier/pkg/money"
)

var ErrFulfillmentPartialFailure = errors.New("fulfillment partially failed")

type Store interface {
	UpdateOrder(ctx context.Context, id int64, upd *woocommerce.OrderUpdate) (*woocommerce.Order, error)
	CreateNote(ctx context.Context, id int64, note string, customer bool) error
}

type Provisioner interface {
	Issue(ctx context.Context, planID string, quantity int64) ([]esim.Code, error)
}

type InvoiceIssuer interface {
	Enabled() bool
	Issue(ctx context.Context, req *invoice.IssueRequest) (*invoice.Invoice, error)
}

type Mailer interface {
	Send(ctx context.Context, to, orderNumber string, codes []esim.Code) error
}

// Trigger runs the post-payment side effects for an order. Each step is
// guarded by an order meta marker, so calling Fulfill again only redoes the
// steps that have not completed.
type Trigger struct {
	store       Store
	provisioner Provisioner
	invoices    InvoiceIssuer
	mailer      Mailer
	planMetaKey string
	itemUnit    string
	log         *zap.SugaredLogger
}

func NewTrigger(cfg *config.Config, store Store, provisioner Provisioner, invoices InvoiceIssuer, mailer Mailer, log *zap.SugaredLogger) *Trigger {
	return &Trigger{
		store:       store,
		provisioner: provisioner,
		invoices:    invoices,
		mailer:      mailer,
		planMetaKey: cfg.Provisioning.PlanMetaKey,
		itemUnit:    cfg.Invoice.ItemUnit,
		log:         log,
	}
}

func (t *Trigger) invoiceEnabled() bool { return t.invoices != nil && t.invoices.Enabled() }

func (t *Trigger) Done(o *woocommerce.Order) bool {
	if !o.MetaData.Has(order.MetaESIMIssued) {
		return false
	}
	return !t.invoiceEnabled() || invoiceDone(o)
}

func invoiceDone(o *woocommerce.Order) bool {
	return o.MetaData.Has(order.MetaInvoiceIssued) && o.MetaData.Has(order.MetaInvoiceNote)
}

// Fulfill issues eSIMs and the invoice independently; a failure in one does
// not stop the other.
func (t *Trigger) Fulfill(ctx context.Context, o *woocommerce.Order, res *newebpay.TransactionResult) error {
	log := logctx.FromCtx(ctx, t.log).With("order_id", o.ID)

	var errs error
	if !o.MetaData.Has(order.MetaESIMIssued) {
		if err := timed("esim", func() error { return t.issueESIMs(ctx, o) }); err != nil {
			log.Errorw("esim_fulfillment_failed", "err", err)
			errs = multierr.Append(errs, fmt.Errorf("esim: %w", err))
		}
	}
	if t.invoiceEnabled() && !invoiceDone(o) {
		if err := timed("invoice", func() error { return t.issueInvoice(ctx, o, res) }); err != nil {
			log.Errorw("invoice_fulfillment_failed", "err", err)
			errs = multierr.Append(errs, fmt.Errorf("invoice: %w", err))
		}
	}
	if errs != nil {
		return fmt.Errorf("%w: order %d: %w", ErrFulfillmentPartialFailure, o.ID, errs)
	}
	log.Infow("order_fulfilled")
	return nil
}

func timed(step string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.ObserveBusinessProcess(step, lo.Ternary(err == nil, "ok", "error"), start)
	return err
}

func (t *Trigger) setMeta(ctx context.Context, id int64, entries ...woocommerce.MetaData) error {
	_, err := t.store.UpdateOrder(ctx, id, &woocommerce.OrderUpdate{MetaData: entries})
	return err
}

func (t *Trigger) issueESIMs(ctx context.Context, o *woocommerce.Order) error {
	var all []esim.Code
	for _, li := range o.LineItems {
		planID, ok := li.MetaData.Get(t.planMetaKey)
		if !ok || planID == "" {
			continue
		}
		key := order.LineCodesKey(li.ID)
		var codes []esim.Code
		if raw, ok := o.MetaData.Get(key); ok && raw != "" {
			if err := json.Unmarshal([]byte(raw), &codes); err != nil {
				return fmt.Errorf("decode %s: %w", key, err)
			}
		} else {
			issued, err := t.provisioner.Issue(ctx, planID, max(li.Quantity, 1))
			if err != nil {
				return fmt.Errorf("line item %d: %w", li.ID, err)
			}
			b, err := json.Marshal(issued)
			if err != nil {
				return err
			}
			if err := t.setMeta(ctx, o.ID, woocommerce.Meta(key, string(b))); err != nil {
				return fmt.Errorf("store codes of line item %d: %w", li.ID, err)
			}
			o.MetaData = o.MetaData.Merge(woocommerce.Meta(key, string(b)))
			codes = issued
		}
		if err := order.NoteOnce(ctx, t.store, o, order.LineNoteKey(li.ID), codesNote(li, codes)); err != nil {
			return fmt.Errorf("codes note of line item %d: %w", li.ID, err)
		}
		all = append(all, codes...)
	}

	if len(all) > 0 {
		b, err := json.Marshal(all)
		if err != nil {
			return err
		}
		if err := t.setMeta(ctx, o.ID, woocommerce.Meta(order.MetaESIMCodes, string(b))); err != nil {
			return fmt.Errorf("store esim codes: %w", err)
		}
		if o.Billing.Email != "" {
			if err := t.mailer.Send(ctx, o.Billing.Email, orderNumber(o), all); err != nil {
				return err
			}
		}
	}
	return t.setMeta(ctx, o.ID, woocommerce.Meta(order.MetaESIMIssued, order.MarkerYes))
}

func orderNumber(o *woocommerce.Order) string {
	if o.Number != "" {
		return o.Number
	}
	return fmt.Sprintf("%d", o.ID)
}

func codesNote(li woocommerce.LineItem, codes []esim.Code) string {
	var b strings.Builder
	fmt.Fprintf(&b, "eSIM issued for %s:", html.EscapeString(li.Name))
	for _, c := range codes {
		fmt.Fprintf(&b, `<br/>%s<br/><img src="%s" alt="%s" width="200"/>`,
			html.EscapeString(c.Name), html.EscapeString(c.ImageSource), html.EscapeString(c.Name))
	}
	return b.String()
}

// InvoiceItems allocates totalCents across the order's line items by subtotal.
// An item keeps its quantity only when its allocation divides evenly.
func InvoiceItems(o *woocommerce.Order, totalCents int64, unit string) ([]invoice.Item, error) {
	if len(o.LineItems) == 0 {
		return []invoice.Item{{Name: "Order #" + orderNumber(o), Count: 1, Unit: unit, PriceCents: totalCents, AmountCents: totalCents}}, nil
	}
	weights := make([]int64, len(o.LineItems))
	for i, li := range o.LineItems {
		w, err := money.ParseCents(li.Subtotal)
		if err != nil {
			return nil, fmt.Errorf("line item %d subtotal: %w", li.ID, err)
		}
		weights[i] = w
	}
	alloc := money.Allocate(totalCents, weights)
	items := make([]invoice.Item, len(o.LineItems))
	for i, li := range o.LineItems {
		qty := max(li.Quantity, 1)
		item := invoice.Item{Name: li.Name, Count: 1, Unit: unit, PriceCents: alloc[i], AmountCents: alloc[i]}
		if alloc[i]%qty == 0 {
			item.Count = qty
			item.PriceCents = alloc[i] / qty
		}
		items[i] = item
	}
	return items, nil
}

func (t *Trigger) issueInvoice(ctx context.Context, o *woocommerce.Order, res *newebpay.TransactionResult) error {
	if !o.MetaData.Has(order.MetaInvoiceIssued) {
		if err := t.requestInvoice(ctx, o, res); err != nil {
			return err
		}
	}
	number, _ := o.MetaData.Get(order.MetaInvoiceNumber)
	random, _ := o.MetaData.Get(order.MetaInvoiceRandomCode)
	issued, _ := o.MetaData.Get(order.MetaInvoiceIssueTime)
	note := fmt.Sprintf("E-invoice issued: %s (random code %s) at %s.", number, random, issued)
	return order.NoteOnce(ctx, t.store, o, order.MetaInvoiceNote, note)
}

func (t *Trigger) requestInvoice(ctx context.Context, o *woocommerce.Order, res *newebpay.TransactionResult) error {
	total := money.FromUnits(res.Amount)
	if total <= 0 {
		parsed, err := money.ParseCents(o.Total)
		if err != nil {
			return fmt.Errorf("order total: %w", err)
		}
		total = parsed
	}
	if total <= 0 {
		return fmt.Errorf("order %d has no billable amount", o.ID)
	}
	items, err := InvoiceItems(o, total, t.itemUnit)
	if err != nil {
		return err
	}
	inv, err := t.invoices.Issue(ctx, &invoice.IssueRequest{
		MerchantOrderNo: res.MerchantOrderNo,
		BuyerName:       o.Billing.Name(),
		BuyerEmail:      o.Billing.Email,
		TotalCents:      total,
		Items:           items,
	})
	if err != nil {
		return err
	}
	entries := []woocommerce.MetaData{
		woocommerce.Meta(order.MetaInvoiceNumber, inv.InvoiceNumber),
		woocommerce.Meta(order.MetaInvoiceRandomCode, inv.RandomNum),
		woocommerce.Meta(order.MetaInvoiceIssueTime, inv.CreateTime),
		woocommerce.Meta(order.MetaInvoiceIssued, order.MarkerYes),
	}
	if err := t.setMeta(ctx, o.ID, entries...); err != nil {
		return fmt.Errorf("store invoice %s: %w", inv.InvoiceNumber, err)
	}
	o.MetaData = o.MetaData.Merge(entries...)
	return nil
}

var Module = fx.Options(
	fx.Provide(
		NewTrigger,
		func(c *woocommerce.Client) Store { return c },
		func(c *esim.Client) Provisioner { return c },
		func(c *invoice.Client) InvoiceIssuer { return c },
		func(m *mailer.Mailer) Mailer { return m },
		func(t *Trigger) order.Fulfiller { return t },
	),
)
