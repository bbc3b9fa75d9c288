package klaviyo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sharedCache "github.com/davicafu/possync/internal/shared/infra/platform/cache"
	syncDomain "github.com/davicafu/possync/internal/sync/domain"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://a.klaviyo.com/api"
	APIRevision    = "2023-10-15"

	maxErrorBody = 2048
	profileTTL   = 24 * 60 * 60 // segundos
)

type Config struct {
	BaseURL string
	APIKey  string
	ListID  string
	Timeout time.Duration
}

// Client es el adaptador outbound hacia la API de Klaviyo.
type Client struct {
	baseURL  string
	apiKey   string
	listID   string
	http     *http.Client
	profiles sharedCache.Cache // email -> profile id; puede ser nil
	log      *zap.Logger
}

var _ syncDomain.EventSink = (*Client)(nil)

func NewClient(cfg Config, profiles sharedCache.Cache, log *zap.Logger) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  base,
		apiKey:   cfg.APIKey,
		listID:   cfg.ListID,
		http:     &http.Client{Timeout: timeout},
		profiles: profiles,
		log:      log,
	}
}

// DeliverEvent envía un evento. 200, 201 y 202 (procesado asíncrono) cuentan como éxito.
func (c *Client) DeliverEvent(ctx context.Context, evt syncDomain.NormalizedEvent) bool {
	status, body, err := c.do(ctx, http.MethodPost, "/events/", newEventRequest(evt))
	if err != nil {
		c.log.Error("Error sending event to Klaviyo", zap.String("event_id", evt.EventID), zap.Error(err))
		return false
	}
	switch status {
	case http.StatusOK, http.StatusCreated:
		c.log.Info("Event delivered", zap.String("event_id", evt.EventID))
		return true
	case http.StatusAccepted:
		c.log.Info("Event accepted for async processing", zap.String("event_id", evt.EventID))
		return true
	default:
		c.log.Error("Klaviyo rejected event",
			zap.String("event_id", evt.EventID),
			zap.Int("status", status),
			zap.String("body", truncate(body)),
		)
		return false
	}
}

// DeliverBatch envía los eventos en orden, uno a uno. Si el contexto se cancela
// devuelve los contadores acumulados junto con el error.
func (c *Client) DeliverBatch(ctx context.Context, events []syncDomain.NormalizedEvent) (syncDomain.BatchOutcome, error) {
	outcome := syncDomain.BatchOutcome{Total: len(events)}
	for _, evt := range events {
		if err := ctx.Err(); err != nil {
			outcome.Failed = outcome.Total - outcome.Accepted
			return outcome, fmt.Errorf("%w: %v", syncDomain.ErrDeliveryFailed, err)
		}
		if c.DeliverEvent(ctx, evt) {
			outcome.Accepted++
		} else {
			outcome.Failed++
		}
	}
	c.log.Info("Batch sent to Klaviyo",
		zap.Int("accepted", outcome.Accepted),
		zap.Int("failed", outcome.Failed),
	)
	return outcome, nil
}

// UpsertProfile crea (u obtiene) el perfil por email y lo añade a la lista configurada.
func (c *Client) UpsertProfile(ctx context.Context, email string, properties map[string]any) bool {
	profileID := c.cachedProfileID(ctx, email)
	fromCache := profileID != ""
	if profileID == "" {
		profileID = c.createProfile(ctx, email, properties)
	}
	if profileID == "" {
		profileID = c.lookupProfileID(ctx, email)
	}
	if profileID == "" {
		c.log.Error("Could not get profile ID", zap.String("email", email))
		return false
	}

	path := fmt.Sprintf("/lists/%s/relationships/profiles/", url.PathEscape(c.listID))
	req := listRelationshipRequest{Data: []resourceRef{{Type: "profile", ID: profileID}}}
	status, body, err := c.do(ctx, http.MethodPost, path, req)
	if err != nil {
		c.log.Error("Error adding profile to list", zap.String("email", email), zap.Error(err))
		return false
	}
	switch status {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNoContent:
	default:
		c.log.Error("Failed to add profile to list",
			zap.String("email", email),
			zap.Int("status", status),
			zap.String("body", truncate(body)),
		)
		// Un 4xx con un id cacheado suele indicar un perfil borrado o fusionado.
		if fromCache && status >= 400 && status < 500 {
			c.evictProfileID(ctx, email)
		}
		return false
	}

	if c.profiles != nil {
		if err := c.profiles.Set(ctx, email, profileID, profileTTL); err != nil {
			c.log.Warn("Profile cache update failed", zap.String("email", email), zap.Error(err))
		}
	}
	c.log.Info("Profile added to list",
		zap.String("email", email),
		zap.String("profile_id", profileID),
		zap.String("list_id", c.listID),
	)
	return true
}

// CheckConnection comprueba la API key leyendo la lista configurada.
func (c *Client) CheckConnection(ctx context.Context) error {
	status, body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/lists/%s/", url.PathEscape(c.listID)), nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("klaviyo responded %d: %s", status, truncate(body))
	}
	return nil
}

func (c *Client) cachedProfileID(ctx context.Context, email string) string {
	if c.profiles == nil {
		return ""
	}
	var id string
	hit, err := c.profiles.Get(ctx, email, &id)
	if err != nil {
		c.log.Warn("Profile cache read failed", zap.String("email", email), zap.Error(err))
		return ""
	}
	if !hit {
		return ""
	}
	return id
}

func (c *Client) evictProfileID(ctx context.Context, email string) {
	if err := c.profiles.Delete(ctx, email); err != nil {
		c.log.Warn("Profile cache eviction failed", zap.String("email", email), zap.Error(err))
		return
	}
	c.log.Info("Stale profile id evicted", zap.String("email", email))
}

func (c *Client) createProfile(ctx context.Context, email string, properties map[string]any) string {
	req := profileRequest{Data: profileData{
		Type:       "profile",
		Attributes: profileAttributes{Email: email, Properties: properties},
	}}
	status, body, err := c.do(ctx, http.MethodPost, "/profiles/", req)
	if err != nil {
		c.log.Error("Error creating profile", zap.String("email", email), zap.Error(err))
		return ""
	}

	switch status {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		var resp profileResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			c.log.Warn("Error parsing profile creation response", zap.Error(err))
			return ""
		}
		return resp.Data.ID
	case http.StatusConflict:
		// El perfil ya existe; Klaviyo devuelve su id en el error.
		var resp errorResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			c.log.Warn("Error parsing conflict response", zap.Error(err))
			return ""
		}
		if len(resp.Errors) > 0 {
			return resp.Errors[0].Meta.DuplicateProfileID
		}
		return ""
	default:
		c.log.Error("Failed to create profile",
			zap.String("email", email),
			zap.Int("status", status),
			zap.String("body", truncate(body)),
		)
		return ""
	}
}

func (c *Client) lookupProfileID(ctx context.Context, email string) string {
	q := url.Values{}
	q.Set("filter", fmt.Sprintf("equals(email,%q)", email))
	status, body, err := c.do(ctx, http.MethodGet, "/profiles/?"+q.Encode(), nil)
	if err != nil || status != http.StatusOK {
		c.log.Warn("Profile lookup failed", zap.String("email", email), zap.Int("status", status), zap.Error(err))
		return ""
	}
	var resp profileListResponse
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Data) == 0 {
		return ""
	}
	return resp.Data[0].ID
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Klaviyo-API-Key "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("revision", APIRevision)

	c.log.Debug("Klaviyo request", zap.String("method", method), zap.String("path", path))
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
