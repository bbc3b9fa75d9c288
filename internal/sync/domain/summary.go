package domain

import "time"

type RunStatus string

const (
	StatusSuccess RunStatus = "success"
	StatusError   RunStatus = "error"
)

type Period struct {
	FromDate string `json:"from_date"`
	ToDate   string `json:"to_date"`
}

// RunSummary es el resultado estructurado de una ejecución.
// Con StatusError todos los contadores de la ejecución van a cero.
// TrackedInvoices no es un contador de la ejecución: es el tamaño del almacén
// de idempotencia al terminar y se informa siempre, también con StatusError.
// TotalProcessed cuenta los registros válidos, incluidos los duplicados.
type RunSummary struct {
	RunID               string    `json:"run_id"`
	Status              RunStatus `json:"status"`
	Message             string    `json:"message,omitempty"`
	SalesSynced         int       `json:"sales_synced"`
	PurchasesSynced     int       `json:"purchases_synced"`
	DuplicatesSkipped   int       `json:"duplicates_skipped"`
	SalesDuplicates     int       `json:"sales_duplicates"`
	PurchasesDuplicates int       `json:"purchases_duplicates"`
	ProfilesAdded       int       `json:"profiles_added"`
	TotalProcessed      int       `json:"total_processed"`
	TrackedInvoices     int       `json:"tracked_invoices"`
	Period              *Period   `json:"period,omitempty"`
	StartedAt           time.Time `json:"started_at"`
	FinishedAt          time.Time `json:"finished_at"`
}

func (s RunSummary) Succeeded() bool { return s.Status == StatusSuccess }

// NewPeriod formatea la ventana en ISO 8601.
func NewPeriod(w Window) *Period {
	return &Period{
		FromDate: w.From.Format(time.RFC3339),
		ToDate:   w.To.Format(time.RFC3339),
	}
}
