package mocks

import syncDomain "github.com/davicafu/possync/internal/sync/domain"

// NewSale construye una venta válida con un único artículo.
func NewSale(ticket, email string, amount float64) syncDomain.Sale {
	return syncDomain.Sale{
		TicketNumber:   syncDomain.Code(ticket),
		TicketDateTime: "2024-03-08T14:05:09",
		StoreCode:      "12",
		SaleType:       "Regular",
		Customer: syncDomain.Customer{
			FirstName:   "Ada",
			LastName:    "Lovelace",
			Email:       email,
			Phone:       "555-0100",
			PhoneNumber: "555-0100",
		},
		SaleDetails: []syncDomain.SaleDetail{{
			ProductItem: syncDomain.ProductItem{Sku: "SKU-" + ticket, Summary: "Boots"},
			Quantity:    1,
			AmountPaid:  amount,
		}},
		Tenders: []syncDomain.Tender{{TenderDescription: "Visa", Amount: amount}},
	}
}

// NewPurchase construye una orden de compra válida.
func NewPurchase(number string, cost, qty float64) syncDomain.Purchase {
	return syncDomain.Purchase{
		PurchaseOrderNumber: syncDomain.Code(number),
		OrderedOn:           "2024-03-07T10:00:00",
		BillToStoreCode:     "12",
		SupplierCode:        "SUP1",
		SupplierName:        "Acme Leather",
		Details: []syncDomain.PurchaseDetail{{
			ProductItem:   syncDomain.ProductItem{Sku: "SKU-" + number, Summary: "Hides"},
			Cost:          cost,
			OrderQuantity: qty,
		}},
	}
}
