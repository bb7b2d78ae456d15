package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestSaleLineDerivedAmounts(t *testing.T) {
	t.Parallel()

	vat := &VatRate{ID: uuid.New(), Rate: decimal.NewFromInt(25)}
	line := SaleLine{
		Quantity:    decimal.NewFromInt(12),
		PreTaxPrice: decimal.NewFromInt(100),
		VatRate:     vat,
		Discount:    &Discount{Rate: decimal.NewFromInt(10)},
	}

	if got := line.UnitPrice(); !got.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("unit price: expected 90, got %s", got)
	}
	if got := line.VatPrice(); !got.Equal(decimal.RequireFromString("22.5")) {
		t.Fatalf("vat price: expected 22.5, got %s", got)
	}
	if got := line.PreTaxTotalPrice(); !got.Equal(decimal.NewFromInt(1080)) {
		t.Fatalf("pre-tax total: expected 1080, got %s", got)
	}
	if got := line.VatInclusiveTotalPrice(); !got.Equal(decimal.NewFromInt(1350)) {
		t.Fatalf("vat-inclusive total: expected 1350, got %s", got)
	}
}

func TestSaleLineBlankContributesNothing(t *testing.T) {
	t.Parallel()

	line := SaleLine{
		IsBlank:     true,
		Quantity:    decimal.NewFromInt(3),
		PreTaxPrice: decimal.NewFromInt(100),
		VatRate:     &VatRate{ID: uuid.New(), Rate: decimal.NewFromInt(25)},
	}
	if !line.UnitPrice().IsZero() || !line.PreTaxTotalPrice().IsZero() || !line.VatInclusiveTotalPrice().IsZero() {
		t.Fatalf("blank line must contribute zero everywhere")
	}
}

func TestSaleTotalsAndVatBuckets(t *testing.T) {
	t.Parallel()

	full := VatRate{ID: uuid.New(), Rate: decimal.NewFromInt(25)}
	reduced := VatRate{ID: uuid.New(), Rate: decimal.NewFromInt(12)}

	sale := Sale{Lines: []SaleLine{
		{
			OrderIndex:  1,
			Quantity:    decimal.NewFromInt(12),
			PreTaxPrice: decimal.NewFromInt(100),
			VatRate:     &full,
			Discount:    &Discount{Rate: decimal.NewFromInt(10)},
		},
		{OrderIndex: 2, IsBlank: true},
		{
			OrderIndex:  3,
			Quantity:    decimal.NewFromInt(2),
			PreTaxPrice: decimal.NewFromInt(50),
			VatRate:     &reduced,
		},
	}}

	if got := sale.PreTaxTotalPrice(); !got.Equal(decimal.NewFromInt(1180)) {
		t.Fatalf("pre-tax total: expected 1180, got %s", got)
	}
	if got := sale.VatInclusiveTotalPrice(); !got.Equal(decimal.NewFromInt(1462)) {
		t.Fatalf("vat-inclusive total: expected 1462, got %s", got)
	}

	buckets := sale.VatTotalAmounts()
	if len(buckets) != 2 {
		t.Fatalf("expected 2 vat buckets, got %d", len(buckets))
	}
	if !buckets[0].VatRate.Rate.Equal(decimal.NewFromInt(12)) || !buckets[0].Amount.Equal(decimal.NewFromInt(12)) {
		t.Fatalf("reduced bucket: got rate %s amount %s", buckets[0].VatRate.Rate, buckets[0].Amount)
	}
	if !buckets[1].VatRate.Rate.Equal(decimal.NewFromInt(25)) || !buckets[1].Amount.Equal(decimal.NewFromInt(270)) {
		t.Fatalf("full bucket: got rate %s amount %s", buckets[1].VatRate.Rate, buckets[1].Amount)
	}
}

func TestSaleVatBucketsFoldEqualRates(t *testing.T) {
	t.Parallel()

	// Two distinct rate rows with the same value must land in one bucket.
	first := VatRate{ID: uuid.New(), Rate: decimal.NewFromInt(20)}
	second := VatRate{ID: uuid.New(), Rate: decimal.RequireFromString("20.0")}

	sale := Sale{Lines: []SaleLine{
		{OrderIndex: 1, Quantity: decimal.NewFromInt(1), PreTaxPrice: decimal.NewFromInt(10), VatRate: &first},
		{OrderIndex: 2, Quantity: decimal.NewFromInt(1), PreTaxPrice: decimal.NewFromInt(5), VatRate: &second},
	}}

	buckets := sale.VatTotalAmounts()
	if len(buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(buckets))
	}
	if !buckets[0].VatRate.Rate.Equal(decimal.NewFromInt(20)) || !buckets[0].Amount.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("folded bucket: got rate %s amount %s", buckets[0].VatRate.Rate, buckets[0].Amount)
	}
}

func TestSaleLineWorkedExamples(t *testing.T) {
	t.Parallel()

	t.Run("ten percent vat on 20", func(t *testing.T) {
		line := SaleLine{
			Quantity:    decimal.NewFromInt(1),
			PreTaxPrice: decimal.NewFromInt(20),
			VatRate:     &VatRate{ID: uuid.New(), Rate: decimal.NewFromInt(10)},
		}
		if got := line.VatInclusivePrice(); !got.Equal(decimal.NewFromInt(22)) {
			t.Fatalf("expected 22, got %s", got)
		}
	})

	t.Run("bulk discount at threshold", func(t *testing.T) {
		line := SaleLine{
			Quantity:    decimal.NewFromInt(2),
			PreTaxPrice: decimal.NewFromInt(10),
			VatRate:     &VatRate{ID: uuid.New(), Rate: decimal.NewFromInt(20)},
			Discount:    &Discount{Rate: decimal.NewFromInt(10)},
		}
		if got := line.UnitPrice(); !got.Equal(decimal.NewFromInt(9)) {
			t.Fatalf("unit price: expected 9, got %s", got)
		}
		if got := line.VatInclusivePrice(); !got.Equal(decimal.RequireFromString("10.8")) {
			t.Fatalf("vat-inclusive: expected 10.8, got %s", got)
		}
		if got := line.TotalVatPrice(); !got.Equal(decimal.RequireFromString("3.6")) {
			t.Fatalf("total vat: expected 3.6, got %s", got)
		}
	})

	t.Run("mixed-rate sale buckets ascending", func(t *testing.T) {
		twenty := VatRate{ID: uuid.New(), Rate: decimal.NewFromInt(20)}
		ten := VatRate{ID: uuid.New(), Rate: decimal.NewFromInt(10)}
		sale := Sale{Lines: []SaleLine{
			{OrderIndex: 1, Quantity: decimal.NewFromInt(1), PreTaxPrice: decimal.NewFromInt(10), VatRate: &twenty},
			{OrderIndex: 2, Quantity: decimal.NewFromInt(2), PreTaxPrice: decimal.NewFromInt(1), VatRate: &ten},
		}}
		if got := sale.PreTaxTotalPrice(); !got.Equal(decimal.NewFromInt(12)) {
			t.Fatalf("pre-tax total: expected 12, got %s", got)
		}
		buckets := sale.VatTotalAmounts()
		if len(buckets) != 2 {
			t.Fatalf("expected 2 buckets, got %d", len(buckets))
		}
		if !buckets[0].VatRate.Rate.Equal(decimal.NewFromInt(10)) || !buckets[0].Amount.Equal(decimal.RequireFromString("0.2")) {
			t.Fatalf("first bucket: got rate %s amount %s", buckets[0].VatRate.Rate, buckets[0].Amount)
		}
		if !buckets[1].VatRate.Rate.Equal(decimal.NewFromInt(20)) || !buckets[1].Amount.Equal(decimal.NewFromInt(2)) {
			t.Fatalf("second bucket: got rate %s amount %s", buckets[1].VatRate.Rate, buckets[1].Amount)
		}
	})
}

func TestSaleNextOrderIndex(t *testing.T) {
	t.Parallel()

	empty := Sale{}
	if got := empty.NextOrderIndex(); got != 1 {
		t.Fatalf("expected 1 on an empty sale, got %d", got)
	}

	sale := Sale{Lines: []SaleLine{{OrderIndex: 1}, {OrderIndex: 4}}}
	if got := sale.NextOrderIndex(); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
}

func TestActionAmountBasisDefaultsToPreTax(t *testing.T) {
	t.Parallel()

	untyped := Action{}
	if !untyped.AmountShownAsPreTax() {
		t.Fatalf("actions without a type default to the pre-tax basis")
	}

	gross := Action{Type: &ActionType{ShowAmountAsPreTax: false}}
	if gross.AmountShownAsPreTax() {
		t.Fatalf("expected the vat-inclusive basis from the type")
	}
}
