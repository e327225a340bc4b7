// 文件: pkg/marketdata/source_test.go

package marketdata

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestStaticSource_KnownInstruments(t *testing.T) {
	s := NewStaticSource()
	ctx := context.Background()

	cases := map[string]string{
		"US67066G1040": "100.00",
		"US0378331005": "200.00",
		"US5949181045": "35.50",
	}

	for isin, want := range cases {
		price, err := s.GetPrice(ctx, isin)
		if err != nil {
			t.Fatalf("GetPrice(%s): unexpected error: %v", isin, err)
		}
		if !price.Equal(decimal.RequireFromString(want)) {
			t.Errorf("GetPrice(%s) = %s, want %s", isin, price, want)
		}
	}
}

func TestStaticSource_UnknownInstrument(t *testing.T) {
	s := NewStaticSource()

	_, err := s.GetPrice(context.Background(), "XX0000000000")
	if !errors.Is(err, ErrUnknownInstrument) {
		t.Errorf("expected ErrUnknownInstrument, got %v", err)
	}
}
