package rics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	syncDomain "github.com/davicafu/possync/internal/sync/domain"
	"go.uber.org/zap"
)

const (
	salesEndpoint     = "/POS/GetPOSTransaction"
	purchasesEndpoint = "/PurchaseOrder/GetPurchaseOrder"

	DefaultPageSize = 100
	dateLayout      = "2006-01-02"
	maxErrorBody    = 2048
)

type Config struct {
	BaseURL   string
	APIKey    string
	StoreCode int
	PageSize  int
	Timeout   time.Duration
}

// Client es el adaptador outbound que lee ventas y órdenes de compra de RICS.
// Sólo pide la primera página (Skip=0, Take=PageSize): si la ventana tiene más
// registros que PageSize el resto no se ve en esta ejecución.
type Client struct {
	baseURL   string
	apiKey    string
	storeCode int
	pageSize  int
	http      *http.Client
	log       *zap.Logger
}

var _ syncDomain.RecordSource = (*Client)(nil)

func NewClient(cfg Config, log *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		storeCode: cfg.StoreCode,
		pageSize:  pageSize,
		http:      &http.Client{Timeout: timeout},
		log:       log,
	}
}

// --- Peticiones y respuestas ---

type salesRequest struct {
	BatchStartDate  string `json:"BatchStartDate"`
	BatchEndDate    string `json:"BatchEndDate"`
	TicketDateStart string `json:"TicketDateStart"`
	TicketDateEnd   string `json:"TicketDateEnd"`
	StoreCode       int    `json:"StoreCode"`
	Skip            int    `json:"Skip"`
	Take            int    `json:"Take"`
}

type purchasesRequest struct {
	BillToStoreCode int `json:"BillToStoreCode"`
	Skip            int `json:"Skip"`
	Take            int `json:"Take"`
}

type salesResponse struct {
	IsSuccessful bool   `json:"IsSuccessful"`
	Message      string `json:"Message"`
	Sales        []struct {
		SaleHeaders []syncDomain.Sale `json:"SaleHeaders"`
	} `json:"Sales"`
}

type purchasesResponse struct {
	IsSuccessful   bool                  `json:"IsSuccessful"`
	Message        string                `json:"Message"`
	PurchaseOrders []syncDomain.Purchase `json:"PurchaseOrders"`
}

// FetchSales devuelve las cabeceras de venta de todos los lotes de la ventana.
// Un fallo de transporte o un status distinto de 200 es un error; IsSuccessful=false
// se trata como "sin datos".
func (c *Client) FetchSales(ctx context.Context, w syncDomain.Window) ([]syncDomain.Sale, error) {
	c.log.Info("Fetching sales",
		zap.String("from", w.From.Format(dateLayout)),
		zap.String("to", w.To.Format(dateLayout)),
	)
	req := salesRequest{
		BatchStartDate:  w.From.Format(dateLayout),
		BatchEndDate:    w.To.Format(dateLayout),
		TicketDateStart: w.From.Format(dateLayout),
		TicketDateEnd:   w.To.Format(dateLayout),
		StoreCode:       c.storeCode,
		Skip:            0,
		Take:            c.pageSize,
	}

	var resp salesResponse
	if err := c.post(ctx, salesEndpoint, req, &resp); err != nil {
		return nil, err
	}
	if !resp.IsSuccessful {
		c.log.Error("RICS returned unsuccessful sales response", zap.String("message", resp.Message))
		return []syncDomain.Sale{}, nil
	}

	sales := make([]syncDomain.Sale, 0)
	for _, batch := range resp.Sales {
		sales = append(sales, batch.SaleHeaders...)
	}
	c.log.Info("Sales retrieved", zap.Int("batches", len(resp.Sales)), zap.Int("sales", len(sales)))
	if len(sales) >= c.pageSize {
		c.log.Warn("Sales page is full, some records may be outside this run", zap.Int("page_size", c.pageSize))
	}
	return sales, nil
}

// FetchPurchases nunca devuelve error: el fallo se señala con FetchFailed para que
// la ejecución continúe sólo con ventas.
func (c *Client) FetchPurchases(ctx context.Context, w syncDomain.Window) syncDomain.PurchaseFetch {
	c.log.Info("Fetching purchases",
		zap.String("from", w.From.Format(dateLayout)),
		zap.String("to", w.To.Format(dateLayout)),
	)
	req := purchasesRequest{BillToStoreCode: c.storeCode, Skip: 0, Take: c.pageSize}

	var resp purchasesResponse
	if err := c.post(ctx, purchasesEndpoint, req, &resp); err != nil {
		return syncDomain.PurchaseFetch{Status: syncDomain.FetchFailed, Reason: err}
	}
	if !resp.IsSuccessful {
		c.log.Warn("RICS returned unsuccessful purchase response", zap.String("message", resp.Message))
		return syncDomain.PurchaseFetch{Purchases: []syncDomain.Purchase{}, Status: syncDomain.FetchOK}
	}

	// La API no filtra por fecha: se filtra aquí por OrderedOn.
	inWindow := make([]syncDomain.Purchase, 0, len(resp.PurchaseOrders))
	for _, p := range resp.PurchaseOrders {
		if syncDomain.IsUnsetDate(p.OrderedOn) {
			continue
		}
		orderedOn, err := syncDomain.ParseSourceTime(strings.TrimSpace(p.OrderedOn))
		if err != nil {
			c.log.Warn("Could not parse purchase date",
				zap.String("purchase", p.ID()),
				zap.String("ordered_on", p.OrderedOn),
			)
			continue
		}
		if w.Contains(orderedOn) {
			inWindow = append(inWindow, p)
		}
	}
	c.log.Info("Purchases retrieved",
		zap.Int("received", len(resp.PurchaseOrders)),
		zap.Int("in_window", len(inWindow)),
	)
	return syncDomain.PurchaseFetch{Purchases: inWindow, Status: syncDomain.FetchOK}
}

func (c *Client) post(ctx context.Context, endpoint string, payload, dest interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", syncDomain.ErrSourceRequest, err)
	}
	req.Header.Set("Token", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug("RICS request", zap.String("endpoint", endpoint))
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("Network error calling RICS", zap.String("endpoint", endpoint), zap.Error(err))
		return fmt.Errorf("%w: %v", syncDomain.ErrSourceRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", syncDomain.ErrSourceRequest, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Error("RICS request failed",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(body)),
		)
		return fmt.Errorf("%w: %s responded %d", syncDomain.ErrSourceRequest, endpoint, resp.StatusCode)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: decode %s: %v", syncDomain.ErrSourceRequest, endpoint, err)
	}
	return nil
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
