package wis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mydummyticket/mdt-backend/config"
)

// Client talks to the WIS travel-insurance API. Every call is a POST with the
// agency credentials merged into the request body.
type Client struct {
	baseURL    string
	agencyID   string
	agencyCode string
	httpClient *http.Client
}

func NewClient(cfg config.InsuranceConfig) (*Client, error) {
	if cfg.BaseURL == "" || cfg.AgencyID == "" || cfg.AgencyCode == "" {
		return nil, errors.New("insurance provider is not configured")
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		agencyID:   cfg.AgencyID,
		agencyCode: cfg.AgencyCode,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

type envelope struct {
	Status string          `json:"status"`
	Errors []string        `json:"errors"`
	Result json.RawMessage `json:"result"`
}

func (c *Client) post(ctx context.Context, slug string, data map[string]any, out any) error {
	body := map[string]any{
		"agency_id":   c.agencyID,
		"agency_code": c.agencyCode,
	}
	for k, v := range data {
		body[k] = v
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+slug, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("wis %s: %w", slug, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("wis %s: decode response: %w", slug, err)
	}
	if env.Status == "failed" {
		if len(env.Errors) > 0 {
			return fmt.Errorf("wis %s: %s", slug, env.Errors[0])
		}
		return fmt.Errorf("wis %s: request failed", slug)
	}

	if out != nil {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("wis %s: decode result: %w", slug, err)
		}
	}
	return nil
}

// Nationalities returns the provider's id -> name nationality map.
func (c *Client) Nationalities(ctx context.Context) (map[string]string, error) {
	var out struct {
		Nationalities map[string]string `json:"nationalities"`
	}
	if err := c.post(ctx, "quote/outbound/nationalities", nil, &out); err != nil {
		return nil, err
	}
	return out.Nationalities, nil
}

// QuoteRequest is the provider-shaped premium request.
type QuoteRequest struct {
	JourneyID string   `json:"journey_id"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Region    string   `json:"region"`
	AgeBands  AgeBands `json:"age_bands"`
	Family    int      `json:"family"`
	Group     int      `json:"group"`
}

type AgeBands struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Seniors  int `json:"seniors"`
}

type QuoteResult struct {
	Quotes  json.RawMessage `json:"quotes"`
	QuoteID int64           `json:"quote_id"`
}

func (c *Client) Quotes(ctx context.Context, req QuoteRequest) (*QuoteResult, error) {
	var out QuoteResult
	if err := c.post(ctx, "quote/outbound/premium", structToMap(req), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FinalizeRequest carries the applicant and per-traveller columns the
// provider expects as parallel arrays.
type FinalizeRequest struct {
	QuoteID              int64    `json:"quote_id"`
	SchemeID             int64    `json:"scheme_id"`
	TitleCustomer        string   `json:"title_customer"`
	FirstNameCustomer    string   `json:"first_name_customer"`
	LastNameCustomer     string   `json:"last_name_customer"`
	Email                string   `json:"email"`
	Mobile               string   `json:"mobile"`
	TitleTraveller       []string `json:"title_traveller"`
	FirstNameTraveller   []string `json:"first_name_traveller"`
	LastNameTraveller    []string `json:"last_name_traveller"`
	DOB                  []string `json:"dob"`
	PassportNumber       []string `json:"passport_number"`
	NationalityTraveller []string `json:"nationality_traveller"`
}

type FinalizeResult struct {
	PolicyID string  `json:"policy_id"`
	Premium  float64 `json:"premium"`
	Currency string  `json:"currency"`
	DirectPay int    `json:"directpay"`
}

func (c *Client) Finalize(ctx context.Context, req FinalizeRequest) (*FinalizeResult, error) {
	var out FinalizeResult
	if err := c.post(ctx, "quote/outbound/finalise", structToMap(req), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Purchase converts a finalized policy into a purchased one and returns the
// policy number.
func (c *Client) Purchase(ctx context.Context, policyID string) (string, error) {
	var out struct {
		PolicyNumber string `json:"policy_number"`
	}
	if err := c.post(ctx, "quote/outbound/purchase", map[string]any{"policy_id": policyID}, &out); err != nil {
		return "", err
	}
	return out.PolicyNumber, nil
}

// SendPolicyEmail asks the provider to mail the policy documents.
func (c *Client) SendPolicyEmail(ctx context.Context, policyID string) error {
	return c.post(ctx, "policy/outbound/email", map[string]any{"policy_id": policyID}, nil)
}

type PolicyDocument struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (c *Client) Documents(ctx context.Context, policyID string) ([]PolicyDocument, error) {
	var out struct {
		PolicyDocuments []PolicyDocument `json:"policy_documents"`
	}
	if err := c.post(ctx, "policy/outbound/documents", map[string]any{"policy_id": policyID}, &out); err != nil {
		return nil, err
	}
	return out.PolicyDocuments, nil
}

func structToMap(v any) map[string]any {
	data, _ := json.Marshal(v)
	var m map[string]any
	_ = json.Unmarshal(data, &m)
	return m
}
