package notification_log

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/esimtrip/cashier/pkg/types"
)

func TestScanRequest_NormalizeDefaults(t *testing.T) {
	req := &ScanRequest{From: -5, Size: 5000}
	require.NoError(t, req.Normalize())
	require.Equal(t, 0, req.From)
	require.Equal(t, 200, req.Size)
	require.Equal(t, "created_at", req.SortBy)

	req = &ScanRequest{}
	require.NoError(t, req.Normalize())
	require.Equal(t, 20, req.Size)
}

func TestScanRequest_NormalizeRejectsUnknownColumns(t *testing.T) {
	req := &ScanRequest{SortBy: "id; drop table payment_notification_log"}
	require.ErrorIs(t, req.Normalize(), ErrInvalidScanRequest)

	req = &ScanRequest{Filters: []*types.CommonFilter{{Field: "password", Operator: types.CommonFilterOperatorEq, Values: []any{"x"}}}}
	require.ErrorIs(t, req.Normalize(), ErrInvalidScanRequest)
	require.ErrorIs(t, req.Normalize(), types.ErrInvalidFilter)
}

func TestScanRequest_NormalizeAcceptsLogFilters(t *testing.T) {
	req := &ScanRequest{
		SortBy: "notification_time",
		Filters: []*types.CommonFilter{
			{Field: "merchant_order_no", Operator: types.CommonFilterOperatorEq, Values: []any{"ORDER123"}},
			{Field: "decrypt_mode", Operator: types.CommonFilterOperatorIn, Values: []any{"lenient-json", "lenient-query", "lenient-raw"}},
			nil,
		},
	}
	require.NoError(t, req.Normalize())
}
