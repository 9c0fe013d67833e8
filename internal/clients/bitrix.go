package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"negativacao-sync/internal/domain"
	"negativacao-sync/pkg/logger"
)

// BitrixClient talks to a Bitrix24 inbound webhook
// (https://<portal>/rest/<user>/<token>/).
type BitrixClient struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

func NewBitrixClient(webhookURL string, timeout time.Duration, log *logger.Logger) (*BitrixClient, error) {
	if webhookURL == "" {
		return nil, errors.New("bitrix webhook url is empty")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log == nil {
		log = logger.Discard()
	}
	return &BitrixClient{
		baseURL:    strings.TrimRight(webhookURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}, nil
}

// BitrixError is an error payload returned by the REST API.
type BitrixError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *BitrixError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("bitrix: status %d", e.StatusCode)
	}
	return fmt.Sprintf("bitrix: %s: %s (status %d)", e.Code, e.Description, e.StatusCode)
}

type bitrixResponse struct {
	Result           json.RawMessage `json:"result"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

func (c *BitrixClient) GetDeal(ctx context.Context, id string) (domain.Deal, error) {
	var deal domain.Deal
	if err := c.call(ctx, "crm.deal.get", map[string]any{"id": id}, &deal); err != nil {
		return nil, err
	}
	return deal, nil
}

func (c *BitrixClient) UpdateDeal(ctx context.Context, id string, fields map[string]any) error {
	var ok bool
	if err := c.call(ctx, "crm.deal.update", map[string]any{"id": id, "fields": fields}, &ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bitrix: crm.deal.update %s returned false", id)
	}
	return nil
}

func (c *BitrixClient) CreateDeal(ctx context.Context, fields map[string]any) (string, error) {
	var id json.Number
	if err := c.call(ctx, "crm.deal.add", map[string]any{"fields": fields}, &id); err != nil {
		return "", err
	}
	return id.String(), nil
}

// ListDeals returns the first page of matches. Filter keys may carry the
// Bitrix "=" (exact) or "!" (negation) prefixes; slice values match any item.
func (c *BitrixClient) ListDeals(ctx context.Context, filter map[string]any, selectFields []string) ([]domain.Deal, error) {
	params := map[string]any{"filter": filter}
	if len(selectFields) > 0 {
		params["select"] = selectFields
	}

	var deals []domain.Deal
	if err := c.call(ctx, "crm.deal.list", params, &deals); err != nil {
		return nil, err
	}
	return deals, nil
}

func (c *BitrixClient) call(ctx context.Context, method string, params any, out any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode %s params: %w", method, err)
	}

	reqURL := fmt.Sprintf("%s/%s.json", c.baseURL, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.CRMError(method, err)
		return fmt.Errorf("http request %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var payload bitrixResponse
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	decodeErr := dec.Decode(&payload)

	if payload.Error != "" || resp.StatusCode < 200 || resp.StatusCode > 299 {
		bErr := &BitrixError{
			StatusCode:  resp.StatusCode,
			Code:        payload.Error,
			Description: payload.ErrorDescription,
		}
		c.log.CRMError(method, bErr)
		return bErr
	}
	if decodeErr != nil {
		return fmt.Errorf("decode %s response: %w", method, decodeErr)
	}

	resDec := json.NewDecoder(bytes.NewReader(payload.Result))
	resDec.UseNumber()
	if err := resDec.Decode(out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}
