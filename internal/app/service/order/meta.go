package order

import (
	"context"
	"fmt"
	"strconv"

	"github.com/esimtrip/cashier/internal/platform/woocommerce"
)

// Order meta keys written by this service. The underscore prefix hides them
// from the storefront's order page.
const (
	MetaPayTime            = "_newebpay_pay_time"
	MetaTradeNo            = "_newebpay_trade_no"
	MetaPaymentType        = "_newebpay_payment_type"
	MetaBankCode           = "_newebpay_bank_code"
	MetaCodeNo             = "_newebpay_code_no"
	MetaStoreType          = "_newebpay_store_type"
	MetaExpireDate         = "_newebpay_expire_date"
	MetaOffsiteNoteWritten = "_newebpay_offsite_note_written"
	MetaPaidNoteWritten    = "_newebpay_paid_note_written"

	MetaESIMIssued        = "_esim_issued"
	MetaESIMCodes         = "_esim_codes"
	MetaInvoiceIssued     = "_invoice_issued"
	MetaInvoiceNumber     = "_invoice_number"
	MetaInvoiceRandomCode = "_invoice_random_code"
	MetaInvoiceIssueTime  = "_invoice_issue_time"
	MetaInvoiceNote       = "_invoice_note_written"

	MarkerYes = "yes"
)

// LineCodesKey holds the codes issued for one line item.
func LineCodesKey(lineItemID int64) string {
	return MetaESIMCodes + "_" + strconv.FormatInt(lineItemID, 10)
}

// LineNoteKey marks that the codes note for one line item was written.
func LineNoteKey(lineItemID int64) string {
	return "_esim_note_" + strconv.FormatInt(lineItemID, 10)
}

// PaymentRecorded reports whether a settlement was already written to o.
func PaymentRecorded(o *woocommerce.Order) bool {
	return o != nil && o.MetaData.Has(MetaPayTime)
}

// NoteWriter is the part of the order store needed to annotate an order.
type NoteWriter interface {
	UpdateOrder(ctx context.Context, id int64, upd *woocommerce.OrderUpdate) (*woocommerce.Order, error)
	CreateNote(ctx context.Context, id int64, note string, customer bool) error
}

// NoteOnce adds a private note to o unless marker is set, then sets marker
// on the store and on o. A failed note leaves the marker unset so a retry
// writes it; a failed marker write after the note can repeat the note.
func NoteOnce(ctx context.Context, store NoteWriter, o *woocommerce.Order, marker, note string) error {
	if o.MetaData.Has(marker) {
		return nil
	}
	if err := store.CreateNote(ctx, o.ID, note, false); err != nil {
		return fmt.Errorf("add note: %w", err)
	}
	if _, err := store.UpdateOrder(ctx, o.ID, &woocommerce.OrderUpdate{
		MetaData: []woocommerce.MetaData{woocommerce.Meta(marker, MarkerYes)},
	}); err != nil {
		return fmt.Errorf("set %s: %w", marker, err)
	}
	o.MetaData = o.MetaData.Merge(woocommerce.Meta(marker, MarkerYes))
	return nil
}
