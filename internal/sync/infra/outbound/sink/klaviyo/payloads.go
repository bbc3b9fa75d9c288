package klaviyo

import (
	"encoding/json"

	syncDomain "github.com/davicafu/possync/internal/sync/domain"
)

// --- Estructuras JSON:API de Klaviyo ---

type eventRequest struct {
	Data eventData `json:"data"`
}

type eventData struct {
	Type       string          `json:"type"`
	Attributes eventAttributes `json:"attributes"`
}

type eventAttributes struct {
	Properties map[string]any  `json:"properties"`
	Time       string          `json:"time"`
	Value      json.Number     `json:"value"`
	UniqueID   string          `json:"unique_id"`
	Metric     metricEnvelope  `json:"metric"`
	Profile    profileEnvelope `json:"profile"`
}

type metricEnvelope struct {
	Data metricData `json:"data"`
}

type metricData struct {
	Type       string           `json:"type"`
	Attributes metricAttributes `json:"attributes"`
}

type metricAttributes struct {
	Name string `json:"name"`
}

type profileEnvelope struct {
	Data profileData `json:"data"`
}

type profileRequest struct {
	Data profileData `json:"data"`
}

type profileData struct {
	Type       string            `json:"type"`
	Attributes profileAttributes `json:"attributes"`
}

type profileAttributes struct {
	Email      string         `json:"email"`
	Properties map[string]any `json:"properties,omitempty"`
}

type resourceRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type listRelationshipRequest struct {
	Data []resourceRef `json:"data"`
}

type profileResponse struct {
	Data resourceRef `json:"data"`
}

type profileListResponse struct {
	Data []resourceRef `json:"data"`
}

type errorResponse struct {
	Errors []struct {
		Meta struct {
			DuplicateProfileID string `json:"duplicate_profile_id"`
		} `json:"meta"`
	} `json:"errors"`
}

func newEventRequest(evt syncDomain.NormalizedEvent) eventRequest {
	value := evt.Value
	if value == "" {
		value = "0"
	}
	return eventRequest{Data: eventData{
		Type: "event",
		Attributes: eventAttributes{
			Properties: evt.Properties,
			Time:       evt.Time,
			Value:      json.Number(value),
			UniqueID:   evt.EventID,
			Metric: metricEnvelope{Data: metricData{
				Type:       "metric",
				Attributes: metricAttributes{Name: evt.Metric},
			}},
			Profile: profileEnvelope{Data: profileData{
				Type:       "profile",
				Attributes: profileAttributes{Email: evt.ProfileEmail},
			}},
		},
	}}
}
