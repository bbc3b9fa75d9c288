package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	unknownProduct = "Unknown Product"
	unknownPayment = "Unknown"
	// RICS usa esta fecha para los campos de fecha sin valor.
	unsetDate = "0001-01-01"
)

var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

// Formatter convierte registros de RICS en eventos normalizados para el sink.
// Es puro salvo por el reloj, que sólo se usa cuando el registro no trae fecha.
type Formatter struct {
	purchaseProfileEmail string
	now                  func() time.Time
}

func NewFormatter(purchaseProfileEmail string, now func() time.Time) *Formatter {
	if now == nil {
		now = time.Now
	}
	return &Formatter{purchaseProfileEmail: purchaseProfileEmail, now: now}
}

// ValidateSale comprueba los campos mínimos para que una venta sea entregable.
func (f *Formatter) ValidateSale(s Sale) error {
	if s.ID() == "" {
		return fmt.Errorf("%w: sale missing TicketNumber", ErrInvalidRecord)
	}
	if !ValidEmail(s.Email()) {
		return fmt.Errorf("%w: sale %s missing valid customer email", ErrInvalidRecord, s.ID())
	}
	if len(s.SaleDetails) == 0 {
		return fmt.Errorf("%w: sale %s has no sale details", ErrInvalidRecord, s.ID())
	}
	if len(s.Tenders) == 0 {
		return fmt.Errorf("%w: sale %s has no tender information", ErrInvalidRecord, s.ID())
	}
	if s.Total() <= 0 {
		return fmt.Errorf("%w: sale %s has zero or negative total amount", ErrInvalidRecord, s.ID())
	}
	return nil
}

// ValidatePurchase comprueba los campos mínimos para que una compra sea entregable.
func (f *Formatter) ValidatePurchase(p Purchase) error {
	if p.ID() == "" {
		return fmt.Errorf("%w: purchase missing PurchaseOrderNumber", ErrInvalidRecord)
	}
	if len(p.Details) == 0 {
		return fmt.Errorf("%w: purchase %s has no details", ErrInvalidRecord, p.ID())
	}
	if p.Total() <= 0 {
		return fmt.Errorf("%w: purchase %s has zero or negative total cost", ErrInvalidRecord, p.ID())
	}
	return nil
}

func (f *Formatter) FormatSale(s Sale) (NormalizedEvent, error) {
	if err := f.ValidateSale(s); err != nil {
		return NormalizedEvent{}, err
	}
	ts, err := f.Timestamp(s.TicketDateTime)
	if err != nil {
		return NormalizedEvent{}, fmt.Errorf("sale %s: %w", s.ID(), err)
	}

	products := make([]string, 0, len(s.SaleDetails))
	for _, d := range s.SaleDetails {
		products = appendProduct(products, d.ProductItem, d.Quantity)
	}

	payment := unknownPayment
	if desc := strings.TrimSpace(s.Tenders[0].TenderDescription); desc != "" {
		payment = desc
	}

	total := s.Total()
	return NormalizedEvent{
		EventID:      IdempotencyKey(KindSale, s.ID()),
		Metric:       MetricPurchase,
		ProfileEmail: s.Email(),
		Value:        FormatAmount(total),
		Time:         ts,
		Properties: map[string]any{
			"InvoiceNumber": s.ID(),
			"Products":      joinProducts(products),
			"Value":         FormatCurrency(total),
			"PaymentMethod": payment,
			"StoreCode":     s.StoreCode.String(),
			"Timestamp":     ts,
			"CustomerName":  FullName(s.Customer),
			"CustomerPhone": s.Customer.PhoneNumber,
			"SaleType":      s.SaleType,
			"PromotionCode": s.PromotionCode,
			"TicketComment": s.TicketComment,
		},
	}, nil
}

func (f *Formatter) FormatPurchase(p Purchase) (NormalizedEvent, error) {
	if err := f.ValidatePurchase(p); err != nil {
		return NormalizedEvent{}, err
	}
	ts, err := f.Timestamp(p.OrderedOn)
	if err != nil {
		return NormalizedEvent{}, fmt.Errorf("purchase %s: %w", p.ID(), err)
	}

	products := make([]string, 0, len(p.Details))
	for _, d := range p.Details {
		products = appendProduct(products, d.ProductItem, d.OrderQuantity)
	}

	total := p.Total()
	return NormalizedEvent{
		EventID:      IdempotencyKey(KindPurchase, p.ID()),
		Metric:       MetricPurchase,
		ProfileEmail: f.purchaseProfileEmail,
		Value:        FormatAmount(total),
		Time:         ts,
		Properties: map[string]any{
			"InvoiceNumber":       p.ID(),
			"Products":            joinProducts(products),
			"Value":               FormatCurrency(total),
			"StoreCode":           p.BillToStoreCode.String(),
			"Timestamp":           ts,
			"SupplierCode":        p.SupplierCode,
			"SupplierName":        p.SupplierName,
			"PurchaseOrderType":   p.PurchaseOrderType,
			"ConfirmationNumber":  p.ConfirmationNumber,
			"Terms":               p.Terms,
			"ShipVia":             p.ShipVia,
			"CustomerOrderNumber": p.CustomerOrderNumber,
		},
	}, nil
}

// Timestamp normaliza una fecha de RICS al formato canónico. Sin valor (o con la
// fecha centinela) usa el reloj; un valor presente que no se puede parsear es un error.
func (f *Formatter) Timestamp(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if IsUnsetDate(raw) {
		return f.now().UTC().Format(TimeLayout), nil
	}
	t, err := ParseSourceTime(raw)
	if err != nil {
		return "", err
	}
	return t.UTC().Format(TimeLayout), nil
}

// IsUnsetDate indica si el valor está vacío o es la fecha centinela de RICS.
func IsUnsetDate(raw string) bool {
	raw = strings.TrimSpace(raw)
	return raw == "" || strings.HasPrefix(raw, unsetDate)
}

// ParseSourceTime acepta fecha-hora ISO (con o sin zona) o sólo fecha.
// Sin zona se asume UTC.
func ParseSourceTime(raw string) (time.Time, error) {
	if strings.Contains(raw, "T") {
		for _, layout := range datetimeLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, raw)
	}
	return t, nil
}

// ValidEmail es una comprobación sintáctica mínima: parte local y dominio no vacíos.
func ValidEmail(email string) bool {
	local, domain, ok := strings.Cut(strings.TrimSpace(email), "@")
	return ok && local != "" && domain != "" && !strings.Contains(domain, "@")
}

func FullName(c Customer) string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// FormatAmount da el importe con dos decimales fijos.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

func FormatCurrency(amount float64) string {
	return "$" + FormatAmount(amount)
}

func appendProduct(products []string, item ProductItem, qty float64) []string {
	if item.Sku == "" || item.Summary == "" {
		return products
	}
	return append(products, fmt.Sprintf("%s (SKU: %s, Qty: %s)",
		item.Summary, item.Sku, strconv.FormatFloat(qty, 'f', -1, 64)))
}

func joinProducts(products []string) string {
	if len(products) == 0 {
		return unknownProduct
	}
	return strings.Join(products, "; ")
}
