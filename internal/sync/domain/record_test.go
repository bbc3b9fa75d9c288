package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode_AcceptsNumbersAndStrings(t *testing.T) {
	var sale Sale
	err := json.Unmarshal([]byte(`{"TicketNumber": 100234, "StoreCode": " 7 ", "Customer": {"Email": "a@b.c"}}`), &sale)

	require.NoError(t, err)
	assert.Equal(t, "100234", sale.ID())
	assert.Equal(t, "7", sale.StoreCode.String())

	var p Purchase
	require.NoError(t, json.Unmarshal([]byte(`{"PurchaseOrderNumber": null}`), &p))
	assert.Equal(t, "", p.ID())
}

func TestTotals(t *testing.T) {
	s := Sale{SaleDetails: []SaleDetail{{AmountPaid: 1.5}, {AmountPaid: 2.25}}}
	p := Purchase{Details: []PurchaseDetail{{Cost: 2, OrderQuantity: 3}, {Cost: 1.5, OrderQuantity: 2}}}

	assert.InDelta(t, 3.75, s.Total(), 1e-9)
	assert.InDelta(t, 9.0, p.Total(), 1e-9)
}

func TestWindow_ContainsIsInclusiveByDay(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	w := LookbackWindow(now, 7)

	assert.True(t, w.Contains(time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)))
	assert.True(t, w.Contains(time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2024, 3, 2, 23, 59, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)))
}
