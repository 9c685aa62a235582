package newebpay

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_ResultShapes(t *testing.T) {
	tests := []struct {
		name      string
		plaintext string
		status    string
		orderNo   string
	}{
		{
			name:      "json object",
			plaintext: `{"Status":"SUCCESS","Message":"ok","Result":{"MerchantOrderNo":"ORDER123","Amt":540}}`,
			status:    "SUCCESS",
			orderNo:   "ORDER123",
		},
		{
			name:      "json encoded string",
			plaintext: `{"Status":"SUCCESS","Result":"{\"MerchantOrderNo\":\"ORDER123\",\"Amt\":540}"}`,
			status:    "SUCCESS",
			orderNo:   "ORDER123",
		},
		{
			name:      "query string inside json",
			plaintext: `{"Status":"SUCCESS","Result":"MerchantOrderNo=ORDER123&Amt=540"}`,
			status:    "SUCCESS",
			orderNo:   "ORDER123",
		},
		{
			name:      "json string inside query",
			plaintext: `Status=SUCCESS&Result=%7B%22MerchantOrderNo%22%3A%22ORDER123%22%2C%22Amt%22%3A540%7D`,
			status:    "SUCCESS",
			orderNo:   "ORDER123",
		},
		{
			name:      "query string inside query",
			plaintext: `Status=SUCCESS&Result=MerchantOrderNo%3DORDER123%26Amt%3D540`,
			status:    "SUCCESS",
			orderNo:   "ORDER123",
		},
		{
			name:      "absent",
			plaintext: `{"Status":"FAILED","Message":"declined"}`,
			status:    "FAILED",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Normalize(tt.plaintext)
			require.NotNil(t, p.Result)
			assert.Equal(t, tt.status, p.Status)
			if tt.orderNo == "" {
				assert.Empty(t, p.Result)
				return
			}
			assert.Equal(t, tt.orderNo, str(p.Result, "MerchantOrderNo"))
			assert.Equal(t, "540", str(p.Result, "Amt"))
		})
	}
}

func TestNormalize_PreservesNumbers(t *testing.T) {
	p := Normalize(`{"Result":{"Amt":12345678901234}}`)
	n, ok := p.Result["Amt"].(json.Number)
	require.True(t, ok)
	require.Equal(t, "12345678901234", n.String())
}

func TestNormalize_Garbage(t *testing.T) {
	p := Normalize("{not json")
	require.NotNil(t, p.Result)
	require.Empty(t, p.Result)
	require.Empty(t, p.Status)
}

func TestParseTransactionResult_VirtualAccount(t *testing.T) {
	p := Normalize(`{"Status":"SUCCESS","Result":{"MerchantOrderNo":"ORDER123","PaymentType":"VACC","Amt":"540","TradeNo":"T1","BankCode":"822","CodeNo":"9991234567890","ExpireDate":"2026-10-22"}}`)
	res, err := ParseTransactionResult(p)
	require.NoError(t, err)
	require.Equal(t, PaymentTypeVirtualAccount, res.PaymentType)
	require.Equal(t, "VACC", res.RawPaymentType)
	require.Equal(t, int64(540), res.Amount)
	require.Empty(t, res.PayMoment)
	require.NotNil(t, res.Offsite)
	require.Equal(t, "822", res.Offsite.BankCode)
	require.Equal(t, "9991234567890", res.Offsite.CodeNo)
	require.Equal(t, "2026-10-22", res.Offsite.ExpireDate)
	require.Nil(t, res.Card)
}

func TestParseTransactionResult_CardAndWallet(t *testing.T) {
	res, err := ParseTransactionResult(Normalize(`{"Result":{"MerchantOrderNo":"A","PaymentType":"CREDIT","Auth":"123456","Card4No":"4242"}}`))
	require.NoError(t, err)
	require.Equal(t, PaymentTypeCreditCard, res.PaymentType)
	require.Equal(t, "4242", res.Card.Card4No)
	require.Nil(t, res.Offsite)

	res, err = ParseTransactionResult(Normalize(`{"Result":{"MerchantOrderNo":"B","PaymentType":"LINEPAY","PayTime":"2026-10-19 10:00:00"}}`))
	require.NoError(t, err)
	require.Equal(t, PaymentTypeWallet, res.PaymentType)
	require.NotNil(t, res.Wallet)
	require.True(t, res.Paid())
}

func TestParseTransactionResult_PaymentNoAlias(t *testing.T) {
	res, err := ParseTransactionResult(Normalize(`{"Result":{"MerchantOrderNo":"C","PaymentType":"CVS","PaymentNo":"LLL123","StoreType":"1"}}`))
	require.NoError(t, err)
	require.Equal(t, "LLL123", res.Offsite.CodeNo)
	require.Equal(t, "1", res.Offsite.StoreType)
}

func TestParseTransactionResult_FlatFields(t *testing.T) {
	res, err := ParseTransactionResult(Normalize("Status=SUCCESS&MerchantOrderNo=ORDER9&PaymentType=WEBATM&PayTime=2026-10-19+10%3A00%3A00"))
	require.NoError(t, err)
	require.Equal(t, "ORDER9", res.MerchantOrderNo)
	require.Equal(t, PaymentTypeWebATM, res.PaymentType)
	require.Equal(t, "2026-10-19 10:00:00", res.PayMoment)
}

func TestParseTransactionResult_RequiresOrderNo(t *testing.T) {
	_, err := ParseTransactionResult(Normalize(`{"Status":"SUCCESS","Result":{"Amt":540}}`))
	require.ErrorIs(t, err, ErrUnparseableResult)

	_, err = ParseTransactionResult(nil)
	require.ErrorIs(t, err, ErrUnparseableResult)
}

func TestParseTransactionResult_BadAmount(t *testing.T) {
	_, err := ParseTransactionResult(Normalize(`{"Result":{"MerchantOrderNo":"A","Amt":"abc"}}`))
	require.Error(t, err)
}

func TestParsePaymentType(t *testing.T) {
	require.Equal(t, PaymentTypeCreditCard, ParsePaymentType("credit"))
	require.Equal(t, PaymentTypeConvenienceStore, ParsePaymentType("CVS"))
	require.Equal(t, PaymentTypeBarcode, ParsePaymentType("BARCODE"))
	require.Equal(t, PaymentTypeWallet, ParsePaymentType("TAIWANPAY"))
	require.Equal(t, PaymentTypeVirtualAccount, ParsePaymentType("VIRTUAL_ACCOUNT"))
	require.Equal(t, PaymentTypeUnknown, ParsePaymentType("CASH"))
}
