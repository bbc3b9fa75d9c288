package rics

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	syncDomain "github.com/davicafu/possync/internal/sync/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testWindow = syncDomain.Window{
	From: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	To:   time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC),
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Config{BaseURL: srv.URL + "/", APIKey: "tok", StoreCode: 12, Timeout: time.Second}, zap.NewNop())
}

func TestFetchSales_FlattensBatches(t *testing.T) {
	// Arrange
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/POS/GetPOSTransaction", r.URL.Path)
		assert.Equal(t, "tok", r.Header.Get("Token"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"IsSuccessful":true,"Sales":[
			{"SaleHeaders":[{"TicketNumber":100},{"TicketNumber":"101"}]},
			{"SaleHeaders":[{"TicketNumber":102}]}
		]}`)
	}))
	defer srv.Close()

	// Act
	sales, err := newTestClient(srv).FetchSales(context.Background(), testWindow)

	// Assert
	require.NoError(t, err)
	require.Len(t, sales, 3)
	assert.Equal(t, "100", sales[0].ID())
	assert.Equal(t, "101", sales[1].ID())
	assert.Equal(t, "102", sales[2].ID())

	assert.Equal(t, "2024-03-01", got["BatchStartDate"])
	assert.Equal(t, "2024-03-08", got["TicketDateEnd"])
	assert.Equal(t, float64(12), got["StoreCode"])
	assert.Equal(t, float64(0), got["Skip"])
	assert.Equal(t, float64(DefaultPageSize), got["Take"])
}

func TestFetchSales_UnsuccessfulMeansNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"IsSuccessful":false,"Message":"no batch"}`)
	}))
	defer srv.Close()

	sales, err := newTestClient(srv).FetchSales(context.Background(), testWindow)

	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestFetchSales_HTTPErrorIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchSales(context.Background(), testWindow)

	assert.ErrorIs(t, err, syncDomain.ErrSourceRequest)
}

func TestFetchPurchases_FiltersByOrderedOn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "/PurchaseOrder/GetPurchaseOrder", r.URL.Path)
		assert.Equal(t, float64(12), got["BillToStoreCode"])
		io.WriteString(w, `{"IsSuccessful":true,"PurchaseOrders":[
			{"PurchaseOrderNumber":"PO-1","OrderedOn":"2024-03-01T00:00:00"},
			{"PurchaseOrderNumber":"PO-2","OrderedOn":"2024-03-08T23:59:00"},
			{"PurchaseOrderNumber":"PO-3","OrderedOn":"2024-02-29T10:00:00"},
			{"PurchaseOrderNumber":"PO-4","OrderedOn":"0001-01-01T00:00:00"},
			{"PurchaseOrderNumber":"PO-5","OrderedOn":"yesterday"},
			{"PurchaseOrderNumber":"PO-6","OrderedOn":"2024-03-05"}
		]}`)
	}))
	defer srv.Close()

	res := newTestClient(srv).FetchPurchases(context.Background(), testWindow)

	assert.Equal(t, syncDomain.FetchOK, res.Status)
	ids := make([]string, 0, len(res.Purchases))
	for _, p := range res.Purchases {
		ids = append(ids, p.ID())
	}
	assert.Equal(t, []string{"PO-1", "PO-2", "PO-6"}, ids)
}

func TestFetchPurchases_OutageIsReportedNotRaised(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	res := newTestClient(srv).FetchPurchases(context.Background(), testWindow)

	assert.Equal(t, syncDomain.FetchFailed, res.Status)
	assert.ErrorIs(t, res.Reason, syncDomain.ErrSourceRequest)
	assert.Empty(t, res.Purchases)
}

func TestFetchPurchases_UnsuccessfulIsEmptyOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"IsSuccessful":false,"Message":"not found"}`)
	}))
	defer srv.Close()

	res := newTestClient(srv).FetchPurchases(context.Background(), testWindow)

	assert.Equal(t, syncDomain.FetchOK, res.Status)
	assert.Empty(t, res.Purchases)
}
