package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Code es un identificador que RICS envía a veces como número y a veces como string.
type Code string

func (c *Code) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Code(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = Code(n.String())
	return nil
}

func (c Code) String() string { return string(c) }

// --- Ventas (POS) ---

type Customer struct {
	FirstName   string `json:"FirstName"`
	LastName    string `json:"LastName"`
	Email       string `json:"Email"`
	Phone       string `json:"Phone"`
	PhoneNumber string `json:"PhoneNumber"`
}

type ProductItem struct {
	Sku     string `json:"Sku"`
	Summary string `json:"Summary"`
}

type SaleDetail struct {
	ProductItem ProductItem `json:"ProductItem"`
	Quantity    float64     `json:"Quantity"`
	AmountPaid  float64     `json:"AmountPaid"`
}

type Tender struct {
	TenderDescription string  `json:"TenderDescription"`
	Amount            float64 `json:"Amount"`
}

// Sale es una cabecera de venta tal y como la devuelve /POS/GetPOSTransaction.
type Sale struct {
	TicketNumber   Code         `json:"TicketNumber"`
	TicketDateTime string       `json:"TicketDateTime"`
	StoreCode      Code         `json:"StoreCode"`
	SaleType       string       `json:"SaleType"`
	PromotionCode  string       `json:"PromotionCode"`
	TicketComment  string       `json:"TicketComment"`
	Customer       Customer     `json:"Customer"`
	SaleDetails    []SaleDetail `json:"SaleDetails"`
	Tenders        []Tender     `json:"Tenders"`
}

func (s Sale) ID() string { return s.TicketNumber.String() }

// Total suma el importe pagado de cada línea.
func (s Sale) Total() float64 {
	var total float64
	for _, d := range s.SaleDetails {
		total += d.AmountPaid
	}
	return total
}

// Email devuelve el email del cliente sin espacios.
func (s Sale) Email() string {
	return strings.TrimSpace(s.Customer.Email)
}

// --- Compras (órdenes de compra) ---

type PurchaseDetail struct {
	ProductItem   ProductItem `json:"ProductItem"`
	Cost          float64     `json:"Cost"`
	OrderQuantity float64     `json:"OrderQuantity"`
}

// Purchase es una orden de compra tal y como la devuelve /PurchaseOrder/GetPurchaseOrder.
type Purchase struct {
	PurchaseOrderNumber Code             `json:"PurchaseOrderNumber"`
	OrderedOn           string           `json:"OrderedOn"`
	BillToStoreCode     Code             `json:"BillToStoreCode"`
	SupplierCode        string           `json:"SupplierCode"`
	SupplierName        string           `json:"SupplierName"`
	PurchaseOrderType   string           `json:"PurchaseOrderType"`
	ConfirmationNumber  string           `json:"ConfirmationNumber"`
	Terms               string           `json:"Terms"`
	ShipVia             string           `json:"ShipVia"`
	CustomerOrderNumber string           `json:"CustomerOrderNumber"`
	Details             []PurchaseDetail `json:"Details"`
}

func (p Purchase) ID() string { return p.PurchaseOrderNumber.String() }

// Total suma coste unitario por cantidad pedida de cada línea.
func (p Purchase) Total() float64 {
	var total float64
	for _, d := range p.Details {
		total += d.Cost * d.OrderQuantity
	}
	return total
}
