package bootstrap

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/possync/internal/config"
)

const salesPayload = `{"IsSuccessful":true,"Sales":[{"SaleHeaders":[
	{"TicketNumber":"T100","TicketDateTime":"2024-03-08T10:00:00","StoreCode":12,
	 "Customer":{"FirstName":"Ada","Email":"ada@example.com"},
	 "SaleDetails":[{"ProductItem":{"Sku":"B1","Summary":"Boots"},"Quantity":1,"AmountPaid":99.75}],
	 "Tenders":[{"TenderDescription":"Visa","Amount":99.75}]}
]}]}`

func newTestConfig(t *testing.T, ricsURL, klaviyoURL string) *config.Config {
	return &config.Config{
		RICSAPIKey:            "tok",
		RICSAPIURL:            ricsURL,
		RICSStoreCode:         "12",
		RICSPageSize:          100,
		KlaviyoAPIKey:         "pk",
		KlaviyoListID:         "LIST1",
		KlaviyoURL:            klaviyoURL,
		LookbackDays:          7,
		HTTPTimeout:           time.Second,
		PurchaseProfileEmail:  "admin@store.com",
		IdempotencyBackend:    config.BackendFile,
		IdempotencyFile:       filepath.Join(t.TempDir(), "synced_invoices.json"),
		IdempotencyMaxRecords: 10000,
	}
}

func TestBuild_RunsAgainstFakeAPIs(t *testing.T) {
	// ARRANGE
	ricsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/POS/GetPOSTransaction":
			io.WriteString(w, salesPayload)
		default:
			io.WriteString(w, `{"IsSuccessful":true,"PurchaseOrders":[]}`)
		}
	}))
	defer ricsSrv.Close()

	var events int
	klaviyoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/events/":
			events++
			w.WriteHeader(http.StatusAccepted)
		case "/profiles/":
			w.WriteHeader(http.StatusCreated)
			io.WriteString(w, `{"data":{"type":"profile","id":"P1"}}`)
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer klaviyoSrv.Close()

	cfg := newTestConfig(t, ricsSrv.URL, klaviyoSrv.URL)
	app, err := Build(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer app.Close()

	// ACT
	first := app.Service.Run(context.Background(), nil)
	second := app.Service.Run(context.Background(), nil)

	// ASSERT
	assert.True(t, first.Succeeded())
	assert.Equal(t, 1, first.SalesSynced)
	assert.Equal(t, 1, first.ProfilesAdded)
	assert.Equal(t, 1, second.DuplicatesSkipped)
	assert.Equal(t, 1, events)

	data, err := os.ReadFile(cfg.IdempotencyFile)
	require.NoError(t, err)
	var state map[string]any
	require.NoError(t, json.Unmarshal(data, &state))
	assert.Equal(t, []any{"T100"}, state["synced_invoices"])
}

func TestBuild_RejectsNonNumericStoreCode(t *testing.T) {
	cfg := newTestConfig(t, "http://rics", "http://klaviyo")
	cfg.RICSStoreCode = "main"

	_, err := Build(context.Background(), cfg, zap.NewNop())

	assert.Error(t, err)
}

func TestBuild_PebbleBackend(t *testing.T) {
	cfg := newTestConfig(t, "http://rics", "http://klaviyo")
	cfg.IdempotencyBackend = config.BackendPebble
	cfg.PebbleDir = filepath.Join(t.TempDir(), "pebble")

	app, err := Build(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer app.Close()

	app.Store.MarkDelivered(context.Background(), []string{"T1"})
	assert.True(t, app.Store.Contains("T1"))
}
