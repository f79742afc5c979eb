package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxResponseSize = 64 * 1024 // 64KB

// HTTPSource talks to a location oracle over HTTP. The request body carries
// the JSON schema the reply must satisfy.
type HTTPSource struct {
	url        string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewHTTPSource creates a source posting to url. apiKey is sent as a bearer
// token when set.
func NewHTTPSource(url, apiKey, model string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		url:    url,
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
				return errors.New("redirects not allowed")
			},
		},
	}
}

type httpRequest struct {
	Request
	Model          string          `json:"model,omitempty"`
	ResponseSchema json.RawMessage `json:"response_schema"`
}

// Candidates asks for a batch of places. The reply must be a JSON array;
// items that fail to decode are kept as empty candidates so validation can
// drop them individually.
func (s *HTTPSource) Candidates(ctx context.Context, req Request) ([]Candidate, error) {
	body, err := s.post(ctx, httpRequest{Request: req, Model: s.model, ResponseSchema: candidateListSchema})
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	out := make([]Candidate, len(raw))
	for i, item := range raw {
		var c Candidate
		if err := json.Unmarshal(item, &c); err == nil {
			out[i] = c
		}
	}
	return out, nil
}

// Relocation asks for a single place. The reply must be a JSON object.
func (s *HTTPSource) Relocation(ctx context.Context, req Request) (Candidate, error) {
	body, err := s.post(ctx, httpRequest{Request: req, Model: s.model, ResponseSchema: candidateSchema})
	if err != nil {
		return Candidate{}, err
	}

	var c Candidate
	if err := json.Unmarshal(body, &c); err != nil {
		return Candidate{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return c, nil
}

func (s *HTTPSource) post(ctx context.Context, payload httpRequest) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code: %d", ErrOracleUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	if len(body) > maxResponseSize {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrMalformedResponse, maxResponseSize)
	}
	return body, nil
}
