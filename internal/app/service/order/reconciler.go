package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/esimtrip/cashier/internal/platform/lock"
	"github.com/esimtrip/cashier/internal/platform/newebpay"
	"github.com/esimtrip/cashier/internal/platform/woocommerce"
	"github.com/esimtrip/cashier/pkg/config"
	"github.com/esimtrip/cashier/pkg/logctx"
)

var ErrOrderNotFound = errors.New("order not found")

// Store is the subset of the WooCommerce API the reconciler needs.
type Store interface {
	ListOrders(ctx context.Context, page, perPage int) ([]*woocommerce.Order, error)
	UpdateOrder(ctx context.Context, id int64, upd *woocommerce.OrderUpdate) (*woocommerce.Order, error)
	CreateNote(ctx context.Context, id int64, note string, customer bool) error
}

type Fulfiller interface {
	Fulfill(ctx context.Context, o *woocommerce.Order, res *newebpay.TransactionResult) error
	// Done reports whether every enabled fulfillment step has completed for o.
	Done(o *woocommerce.Order) bool
}

type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), held bool)
}

type Action string

const (
	ActionNone              Action = "none"
	ActionOnHold            Action = "on_hold"
	ActionAlreadyPaid       Action = "already_paid"
	ActionPaid              Action = "paid"
	ActionResumeFulfillment Action = "resume_fulfillment"
	ActionAlreadyFulfilled  Action = "already_fulfilled"
)

type Report struct {
	OrderID int64
	Action  Action
	// Locked is false when the reconcile ran without the order lock.
	Locked bool
}

type Reconciler struct {
	store     Store
	fulfiller Fulfiller
	locker    Locker
	cfg       config.WooCommerceConfig
	log       *zap.SugaredLogger
	now       func() time.Time
}

func NewReconciler(cfg *config.Config, store Store, fulfiller Fulfiller, locker Locker, log *zap.SugaredLogger) *Reconciler {
	return &Reconciler{store: store, fulfiller: fulfiller, locker: locker, cfg: cfg.WooCommerce, log: log, now: time.Now}
}

// Find scans the newest orders for the one whose join meta equals merchantOrderNo.
func (r *Reconciler) Find(ctx context.Context, merchantOrderNo string) (*woocommerce.Order, error) {
	perPage := max(r.cfg.PerPage, 1)
	pages := max(r.cfg.ScanPages, 1)
	for page := 1; page <= pages; page++ {
		orders, err := r.store.ListOrders(ctx, page, perPage)
		if err != nil {
			return nil, fmt.Errorf("list orders page %d: %w", page, err)
		}
		for _, o := range orders {
			if v, ok := o.MetaData.Get(r.cfg.JoinMetaKey); ok && v == merchantOrderNo {
				return o, nil
			}
		}
		if len(orders) < perPage {
			break
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, merchantOrderNo)
}

// Reconcile applies a classified gateway result to its order. Repeating the
// same call leaves the order unchanged after the first success.
func (r *Reconciler) Reconcile(ctx context.Context, res *newebpay.TransactionResult, outcome newebpay.Outcome) (*Report, error) {
	if res == nil || outcome == newebpay.OutcomeNone {
		return &Report{Action: ActionNone}, nil
	}
	log := logctx.FromCtx(ctx, r.log)

	release, held := func() {}, false
	if r.locker != nil {
		release, held = r.locker.Acquire(ctx, res.MerchantOrderNo)
	}
	defer release()

	o, err := r.Find(ctx, res.MerchantOrderNo)
	if err != nil {
		return nil, err
	}
	report := &Report{OrderID: o.ID, Locked: held}

	switch outcome {
	case newebpay.OutcomeOffsitePending:
		report.Action, err = r.offsitePending(ctx, o, res)
	case newebpay.OutcomePaid:
		report.Action, err = r.paid(ctx, o, res)
	default:
		report.Action = ActionNone
	}
	log.Infow("order_reconciled",
		"merchant_order_no", res.MerchantOrderNo,
		"order_id", o.ID,
		"outcome", outcome,
		"action", report.Action,
		"locked", held,
		"err", err,
	)
	return report, err
}

func (r *Reconciler) offsitePending(ctx context.Context, o *woocommerce.Order, res *newebpay.TransactionResult) (Action, error) {
	if PaymentRecorded(o) {
		return ActionAlreadyPaid, nil
	}
	if _, err := r.store.UpdateOrder(ctx, o.ID, &woocommerce.OrderUpdate{
		Status:   woocommerce.OrderStatusOnHold,
		MetaData: offsiteMeta(res),
	}); err != nil {
		return ActionOnHold, fmt.Errorf("set order %d on-hold: %w", o.ID, err)
	}
	if err := NoteOnce(ctx, r.store, o, MetaOffsiteNoteWritten, offsiteNote(res)); err != nil {
		return ActionOnHold, fmt.Errorf("offsite note on order %d: %w", o.ID, err)
	}
	return ActionOnHold, nil
}

func (r *Reconciler) paid(ctx context.Context, o *woocommerce.Order, res *newebpay.TransactionResult) (Action, error) {
	action := ActionPaid
	if PaymentRecorded(o) {
		if r.fulfiller.Done(o) && o.MetaData.Has(MetaPaidNoteWritten) {
			return ActionAlreadyFulfilled, nil
		}
		action = ActionResumeFulfillment
	} else {
		payTime := res.PayMoment
		if payTime == "" {
			payTime = r.now().Format(time.DateTime)
		}
		updated, err := r.store.UpdateOrder(ctx, o.ID, &woocommerce.OrderUpdate{
			Status: woocommerce.OrderStatusProcessing,
			MetaData: nonEmptyMeta(
				woocommerce.Meta(MetaPayTime, payTime),
				woocommerce.Meta(MetaTradeNo, res.TradeNo),
				woocommerce.Meta(MetaPaymentType, string(res.PaymentType)),
			),
		})
		if err != nil {
			return action, fmt.Errorf("set order %d processing: %w", o.ID, err)
		}
		if updated != nil {
			o = updated
		}
	}
	// the recorded pay time wins over a redelivery's so the note matches the meta
	payTime, _ := o.MetaData.Get(MetaPayTime)
	if err := NoteOnce(ctx, r.store, o, MetaPaidNoteWritten, paidNote(res, payTime)); err != nil {
		return action, fmt.Errorf("payment note on order %d: %w", o.ID, err)
	}
	if r.fulfiller.Done(o) {
		return action, nil
	}
	if err := r.fulfiller.Fulfill(ctx, o, res); err != nil {
		return action, err
	}
	return action, nil
}

func nonEmptyMeta(entries ...woocommerce.MetaData) []woocommerce.MetaData {
	out := entries[:0]
	for _, e := range entries {
		if s, ok := e.Value.(string); ok && s == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}

func offsiteMeta(res *newebpay.TransactionResult) []woocommerce.MetaData {
	entries := []woocommerce.MetaData{
		woocommerce.Meta(MetaPaymentType, string(res.PaymentType)),
		woocommerce.Meta(MetaTradeNo, res.TradeNo),
	}
	if d := res.Offsite; d != nil {
		entries = append(entries,
			woocommerce.Meta(MetaBankCode, d.BankCode),
			woocommerce.Meta(MetaCodeNo, d.CodeNo),
			woocommerce.Meta(MetaStoreType, d.StoreType),
			woocommerce.Meta(MetaExpireDate, strings.TrimSpace(d.ExpireDate+" "+d.ExpireTime)),
		)
	}
	return nonEmptyMeta(entries...)
}

func offsiteNote(res *newebpay.TransactionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "NewebPay payment code issued (%s).", res.PaymentType)
	if d := res.Offsite; d != nil {
		if d.BankCode != "" {
			fmt.Fprintf(&b, " Bank code: %s.", d.BankCode)
		}
		if d.CodeNo != "" {
			fmt.Fprintf(&b, " Payment code: %s.", d.CodeNo)
		}
		if d.StoreType != "" {
			fmt.Fprintf(&b, " Store: %s.", d.StoreType)
		}
		if d.ExpireDate != "" {
			fmt.Fprintf(&b, " Expires: %s.", strings.TrimSpace(d.ExpireDate+" "+d.ExpireTime))
		}
	}
	if res.Amount > 0 {
		fmt.Fprintf(&b, " Amount: NT$%d.", res.Amount)
	}
	return b.String()
}

func paidNote(res *newebpay.TransactionResult, payTime string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "NewebPay payment received (%s) at %s.", res.PaymentType, payTime)
	if res.TradeNo != "" {
		fmt.Fprintf(&b, " Trade no: %s.", res.TradeNo)
	}
	if res.Amount > 0 {
		fmt.Fprintf(&b, " Amount: NT$%d.", res.Amount)
	}
	if c := res.Card; c != nil && c.Card4No != "" {
		fmt.Fprintf(&b, " Card ending %s.", c.Card4No)
	}
	return b.String()
}

var Module = fx.Options(
	fx.Provide(
		NewReconciler,
		func(c *woocommerce.Client) Store { return c },
		func(l *lock.Locker) Locker { return l },
	),
)
