package amadeus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mydummyticket/mdt-backend/config"
	"github.com/mydummyticket/mdt-backend/internal/domain"
)

// Client is a thin wrapper over the Amadeus self-service APIs: an OAuth
// client-credentials token plus the flight-offers search and airline
// reference-data endpoints.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

func NewClient(cfg config.AmadeusConfig) (*Client, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("flight provider is not configured: missing Amadeus credentials")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.amadeus.com"
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.expiresAt) {
		return c.accessToken, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.apiKey},
		"client_secret": {c.apiSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/security/oauth2/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("amadeus token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("amadeus token: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("amadeus token: decode: %w", err)
	}

	c.accessToken = body.AccessToken
	// Refresh a minute early so in-flight searches never carry a stale token.
	c.expiresAt = time.Now().Add(time.Duration(body.ExpiresIn-60) * time.Second)
	return c.accessToken, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("amadeus %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("amadeus %s: unexpected status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type SearchParams struct {
	Origin        string
	Destination   string
	DepartureDate string
	ReturnDate    string
	Adults        int
}

func (c *Client) SearchFlights(ctx context.Context, p SearchParams) ([]domain.FlightOffer, error) {
	adults := p.Adults
	if adults < 1 {
		adults = 1
	}
	query := url.Values{
		"originLocationCode":      {p.Origin},
		"destinationLocationCode": {p.Destination},
		"departureDate":           {p.DepartureDate},
		"adults":                  {fmt.Sprint(adults)},
	}
	if p.ReturnDate != "" {
		query.Set("returnDate", p.ReturnDate)
	}

	var body struct {
		Data []domain.FlightOffer `json:"data"`
	}
	if err := c.get(ctx, "/v2/shopping/flight-offers", query, &body); err != nil {
		return nil, err
	}
	return body.Data, nil
}

func (c *Client) Airlines(ctx context.Context, iataCodes []string) ([]domain.Airline, error) {
	query := url.Values{"airlineCodes": {strings.Join(iataCodes, ",")}}

	var body struct {
		Data []domain.Airline `json:"data"`
	}
	if err := c.get(ctx, "/v1/reference-data/airlines", query, &body); err != nil {
		return nil, err
	}
	return body.Data, nil
}
