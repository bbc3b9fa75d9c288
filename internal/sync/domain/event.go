package domain

import (
	"fmt"
	"time"
)

// EventKind discrimina el tipo de registro de negocio y forma parte de la clave de idempotencia.
type EventKind string

const (
	KindSale     EventKind = "RICS_SALE"
	KindPurchase EventKind = "RICS_PURCHASE"
)

// MetricPurchase es el nombre de la métrica de Klaviyo bajo la que se registran ventas y compras.
const MetricPurchase = "Purchase"

// TimeLayout es el formato canónico de timestamp que espera el sink.
const TimeLayout = "2006-01-02T15:04:05Z"

// IdempotencyKey deriva la clave del evento a partir del tipo y el identificador de negocio.
func IdempotencyKey(kind EventKind, id string) string {
	return fmt.Sprintf("%s_%s", kind, id)
}

// NormalizedEvent es la representación del registro que se entrega al sink.
type NormalizedEvent struct {
	EventID      string         `json:"event_id"`
	Metric       string         `json:"metric"`
	ProfileEmail string         `json:"profile_email"`
	Value        string         `json:"value"`
	Time         string         `json:"time"`
	Properties   map[string]any `json:"properties"`
}

// BatchOutcome son los contadores agregados que devuelve el sink para un lote.
// No hay correlación por elemento.
type BatchOutcome struct {
	Accepted int `json:"accepted"`
	Failed   int `json:"failed"`
	Total    int `json:"total"`
}

// Window es el rango de fechas (inclusivo) que se consulta en el origen.
type Window struct {
	From time.Time
	To   time.Time
}

// LookbackWindow construye la ventana de los últimos días a partir de now.
func LookbackWindow(now time.Time, days int) Window {
	return Window{From: now.AddDate(0, 0, -days), To: now}
}

// Contains compara sólo la parte de fecha, como hace RICS con sus filtros.
func (w Window) Contains(t time.Time) bool {
	day := truncateDay(t)
	return !day.Before(truncateDay(w.From)) && !day.After(truncateDay(w.To))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FetchStatus distingue un conjunto vacío de una consulta fallida.
type FetchStatus int

const (
	FetchOK FetchStatus = iota
	FetchFailed
)

// PurchaseFetch es el resultado de consultar compras. Un fallo no es un error de la ejecución.
type PurchaseFetch struct {
	Purchases []Purchase
	Status    FetchStatus
	Reason    error
}

// KindResult resume la reconciliación de un tipo de registro.
type KindResult struct {
	Synced        int
	Duplicates    int
	ProfilesAdded int
	// Valid cuenta los registros con identificador que no se excluyeron al formatear.
	Valid         int
}
