package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 10, 12, 30, 0, 0, time.UTC)

func newTestFormatter() *Formatter {
	return NewFormatter("admin@store.com", func() time.Time { return fixedNow })
}

func sampleSale() Sale {
	return Sale{
		TicketNumber:   "T100",
		TicketDateTime: "2024-03-08T14:05:09",
		StoreCode:      "12",
		SaleType:       "Regular",
		Customer: Customer{
			FirstName:   "Ada",
			LastName:    "Lovelace",
			Email:       " ada@example.com ",
			PhoneNumber: "555-0100",
		},
		SaleDetails: []SaleDetail{
			{ProductItem: ProductItem{Sku: "SKU-1", Summary: "Trail Shoe"}, Quantity: 1, AmountPaid: 89.5},
			{ProductItem: ProductItem{Sku: "SKU-2", Summary: "Wool Sock"}, Quantity: 2, AmountPaid: 10.25},
		},
		Tenders: []Tender{{TenderDescription: "VISA", Amount: 99.75}},
	}
}

func samplePurchase() Purchase {
	return Purchase{
		PurchaseOrderNumber: "PO-7",
		OrderedOn:           "2024-03-05",
		BillToStoreCode:     "12",
		SupplierCode:        "ACME",
		SupplierName:        "Acme Footwear",
		Details: []PurchaseDetail{
			{ProductItem: ProductItem{Sku: "SKU-1", Summary: "Trail Shoe"}, Cost: 40, OrderQuantity: 3},
		},
	}
}

func TestFormatSale_BuildsEvent(t *testing.T) {
	// Arrange
	f := newTestFormatter()

	// Act
	evt, err := f.FormatSale(sampleSale())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "RICS_SALE_T100", evt.EventID)
	assert.Equal(t, MetricPurchase, evt.Metric)
	assert.Equal(t, "ada@example.com", evt.ProfileEmail)
	assert.Equal(t, "99.75", evt.Value)
	assert.Equal(t, "2024-03-08T14:05:09Z", evt.Time)
	assert.Equal(t, "Trail Shoe (SKU: SKU-1, Qty: 1); Wool Sock (SKU: SKU-2, Qty: 2)", evt.Properties["Products"])
	assert.Equal(t, "$99.75", evt.Properties["Value"])
	assert.Equal(t, "VISA", evt.Properties["PaymentMethod"])
	assert.Equal(t, "Ada Lovelace", evt.Properties["CustomerName"])
	assert.Equal(t, "555-0100", evt.Properties["CustomerPhone"])
	assert.Equal(t, "12", evt.Properties["StoreCode"])
	assert.Equal(t, "T100", evt.Properties["InvoiceNumber"])
}

func TestFormatSale_IsDeterministic(t *testing.T) {
	f := newTestFormatter()
	sale := sampleSale()
	sale.TicketDateTime = "" // usa el reloj

	first, err := f.FormatSale(sale)
	require.NoError(t, err)
	second, err := f.FormatSale(sale)
	require.NoError(t, err)

	assert.Equal(t, first.EventID, second.EventID)
	assert.Equal(t, first.Properties, second.Properties)
}

func TestFormatSale_ValidationGate(t *testing.T) {
	f := newTestFormatter()

	noEmail := sampleSale()
	noEmail.Customer.Email = ""
	badEmail := sampleSale()
	badEmail.Customer.Email = "not-an-email"
	noDetails := sampleSale()
	noDetails.SaleDetails = nil
	noTenders := sampleSale()
	noTenders.Tenders = nil
	zeroTotal := sampleSale()
	zeroTotal.SaleDetails = []SaleDetail{{ProductItem: ProductItem{Sku: "X", Summary: "Refund"}, AmountPaid: -5}}
	noID := sampleSale()
	noID.TicketNumber = ""

	for name, sale := range map[string]Sale{
		"no email": noEmail, "bad email": badEmail, "no details": noDetails,
		"no tenders": noTenders, "non-positive total": zeroTotal, "no id": noID,
	} {
		_, err := f.FormatSale(sale)
		assert.ErrorIs(t, err, ErrInvalidRecord, name)
	}
}

func TestFormatSale_FallbacksForProductsAndPayment(t *testing.T) {
	f := newTestFormatter()
	sale := sampleSale()
	sale.SaleDetails = []SaleDetail{{ProductItem: ProductItem{Sku: "", Summary: "Gift"}, AmountPaid: 20}}
	sale.Tenders = []Tender{{TenderDescription: ""}}

	evt, err := f.FormatSale(sale)

	require.NoError(t, err)
	assert.Equal(t, "Unknown Product", evt.Properties["Products"])
	assert.Equal(t, "Unknown", evt.Properties["PaymentMethod"])
	assert.Equal(t, "20.00", evt.Value)
}

func TestFormatPurchase_BuildsEvent(t *testing.T) {
	f := newTestFormatter()

	evt, err := f.FormatPurchase(samplePurchase())

	require.NoError(t, err)
	assert.Equal(t, "RICS_PURCHASE_PO-7", evt.EventID)
	assert.Equal(t, "admin@store.com", evt.ProfileEmail)
	assert.Equal(t, "120.00", evt.Value)
	assert.Equal(t, "2024-03-05T00:00:00Z", evt.Time)
	assert.Equal(t, "Trail Shoe (SKU: SKU-1, Qty: 3)", evt.Properties["Products"])
	assert.Equal(t, "Acme Footwear", evt.Properties["SupplierName"])
}

func TestFormatPurchase_ValidationGate(t *testing.T) {
	f := newTestFormatter()
	zeroQty := samplePurchase()
	zeroQty.Details[0].OrderQuantity = 0

	_, err := f.FormatPurchase(zeroQty)

	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestIdempotencyKey_SeparatesKinds(t *testing.T) {
	assert.NotEqual(t, IdempotencyKey(KindSale, "42"), IdempotencyKey(KindPurchase, "42"))
}

func TestTimestamp(t *testing.T) {
	f := newTestFormatter()

	cases := map[string]string{
		"":                          "2024-03-10T12:30:00Z",
		"0001-01-01":                "2024-03-10T12:30:00Z",
		"0001-01-01T00:00:00":       "2024-03-10T12:30:00Z",
		"2024-01-02":                "2024-01-02T00:00:00Z",
		"2024-01-02T03:04:05Z":      "2024-01-02T03:04:05Z",
		"2024-01-02T03:04:05.123":   "2024-01-02T03:04:05Z",
		"2024-01-02T03:04:05-05:00": "2024-01-02T08:04:05Z",
	}
	for raw, want := range cases {
		got, err := f.Timestamp(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
}

func TestTimestamp_MalformedFailsLoudly(t *testing.T) {
	f := newTestFormatter()

	_, err := f.Timestamp("03/08/2024")
	assert.True(t, errors.Is(err, ErrInvalidTimestamp))

	sale := sampleSale()
	sale.TicketDateTime = "2024-13-45T99:00:00"
	_, err = f.FormatSale(sale)
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
}
