package money

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sum(xs []int64) int64 {
	var s int64
	for _, x := range xs {
		s += x
	}
	return s
}

func TestAllocate_DiscountAbsorbedProportionally(t *testing.T) {
	got := Allocate(540, []int64{100, 200, 300})
	require.Equal(t, []int64{90, 180, 270}, got)
	require.Equal(t, int64(540), sum(got))
}

func TestAllocate_RemainderGoesToLast(t *testing.T) {
	got := Allocate(100, []int64{1, 1, 1})
	require.Equal(t, []int64{33, 33, 34}, got)

	got = Allocate(1000, []int64{333, 333, 334})
	require.Equal(t, int64(1000), sum(got))

	// 5 * 1 / 2 = 2.5 rounds up
	got = Allocate(5, []int64{1, 1})
	require.Equal(t, []int64{3, 2}, got)
}

func TestAllocate_Degenerate(t *testing.T) {
	require.Empty(t, Allocate(100, nil))
	require.Equal(t, []int64{100}, Allocate(100, []int64{7}))
	require.Equal(t, []int64{0, 0, 100}, Allocate(100, []int64{0, 0, 0}))
}

func TestSplitTax(t *testing.T) {
	ex, tax := SplitTax(54000, 500)
	require.Equal(t, int64(51429), ex)
	require.Equal(t, int64(2571), tax)
	require.Equal(t, int64(54000), ex+tax)

	ex, tax = SplitTax(10500, 500)
	require.Equal(t, int64(10000), ex)
	require.Equal(t, int64(500), tax)

	ex, tax = SplitTax(999, 0)
	require.Equal(t, int64(999), ex)
	require.Zero(t, tax)
}

func TestParseCents(t *testing.T) {
	for in, want := range map[string]int64{
		"":       0,
		"540":    54000,
		"99.99":  9999,
		"0.005":  1,
		"1234.5": 123450,
		"-10.00": -1000,
	} {
		got, err := ParseCents(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := ParseCents("abc")
	require.Error(t, err)
}

func TestToUnitsAndFormatRate(t *testing.T) {
	require.Equal(t, int64(540), ToUnits(54000))
	require.Equal(t, int64(106), ToUnits(10550))
	require.Equal(t, int64(105), ToUnits(10549))

	require.Equal(t, "5", FormatRate(500))
	require.Equal(t, "5.25", FormatRate(525))
	require.Equal(t, "0", FormatRate(0))
}
