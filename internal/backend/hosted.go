package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/form-autofill/internal/schemas"
	"github.com/jonathan/form-autofill/internal/types"
)

// DefaultHostedTimeout bounds one hosted backend request.
const DefaultHostedTimeout = 30 * time.Second

// Hosted endpoint paths.
const (
	ClassifyFieldsPath = "/v1/classify-fields"
	AutoAddPath        = "/v1/auto-add-decision"
	CreditsPath        = "/v1/credits"
)

// HostedTransport talks to the hosted classification service using a
// bearer session token.
type HostedTransport struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHostedTransport creates a hosted transport. A nil client gets one with
// DefaultHostedTimeout.
func NewHostedTransport(baseURL, token string, client *http.Client) *HostedTransport {
	if client == nil {
		client = &http.Client{Timeout: DefaultHostedTimeout}
	}
	return &HostedTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

// ClassifyFields posts one chunk to the hosted backend.
func (t *HostedTransport) ClassifyFields(ctx context.Context, req *types.ClassifyFieldsRequest) (*types.ClassifyFieldsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, &TransportError{Op: "classify-fields", Message: "invalid request", Cause: err}
	}

	body, err := t.post(ctx, "classify-fields", ClassifyFieldsPath, req, schemas.ClassifyFieldsResponse)
	if err != nil {
		return nil, err
	}

	var resp types.ClassifyFieldsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &TransportError{Op: "classify-fields", Message: "failed to decode response", Cause: err}
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "backend reported failure"
		}
		return nil, &TransportError{Op: "classify-fields", Message: msg}
	}

	resp.Results = normalizeResults(req, resp.Results)
	return &resp, nil
}

// DecideAutoAdd asks the hosted backend whether to reveal another block.
func (t *HostedTransport) DecideAutoAdd(ctx context.Context, req *types.AutoAddRequest) (*types.AutoAddDecision, error) {
	if err := req.Validate(); err != nil {
		return nil, &TransportError{Op: "auto-add-decision", Message: "invalid request", Cause: err}
	}

	body, err := t.post(ctx, "auto-add-decision", AutoAddPath, req, schemas.AutoAddDecision)
	if err != nil {
		return nil, err
	}

	var decision types.AutoAddDecision
	if err := json.Unmarshal(body, &decision); err != nil {
		return nil, &TransportError{Op: "auto-add-decision", Message: "failed to decode response", Cause: err}
	}
	decision.Confidence = types.ClampScore(decision.Confidence)
	return &decision, nil
}

// Credits returns the caller's remaining credit balance.
func (t *HostedTransport) Credits(ctx context.Context) (int, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+CreditsPath, nil)
	if err != nil {
		return 0, &TransportError{Op: "credits", Message: "failed to create request", Cause: err}
	}
	t.authorize(httpReq)

	body, err := t.do(httpReq, "credits")
	if err != nil {
		return 0, err
	}

	var out struct {
		Credits int `json:"credits"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, &TransportError{Op: "credits", Message: "failed to decode response", Cause: err}
	}
	return out.Credits, nil
}

func (t *HostedTransport) post(ctx context.Context, op, path string, payload any, schema string) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, &TransportError{Op: op, Message: "failed to encode request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, &TransportError{Op: op, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	t.authorize(httpReq)

	body, err := t.do(httpReq, op)
	if err != nil {
		return nil, err
	}

	if err := schemas.ValidateJSONString(schema, string(body)); err != nil {
		return nil, &TransportError{Op: op, Message: "response failed schema validation", Cause: err}
	}
	return body, nil
}

func (t *HostedTransport) authorize(req *http.Request) {
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
}

func (t *HostedTransport) do(req *http.Request, op string) ([]byte, error) {
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode, Message: "failed to read response body", Cause: err}
	}

	switch {
	case resp.StatusCode == http.StatusPaymentRequired:
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode, Message: "payment required", Cause: ErrInsufficientCredits}
	case resp.StatusCode != http.StatusOK:
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	return body, nil
}

// errorMessage pulls the message out of a {"error": ...} body when present.
func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("unexpected response: %s", strings.TrimSpace(string(body)))
}
