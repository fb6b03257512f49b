// Package receitaws wraps the public ReceitaWS CNPJ lookup API.
package receitaws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/lookout/internal/model"
)

const defaultBaseURL = "https://www.receitaws.com.br"

// ErrNotFound indicates the registry has no record for the identifier.
var ErrNotFound = eris.New("receitaws: cnpj not found")

// Client performs CNPJ registry lookups.
type Client interface {
	Lookup(ctx context.Context, cnpj string) (*model.RegistryRecord, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithLimiter sets the request rate limiter. The public ReceitaWS tier
// allows 3 requests per minute; bursts past it return 429s, so callers
// queue on the limiter instead.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *httpClient) {
		c.limiter = l
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a ReceitaWS API client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// lookupResponse mirrors the ReceitaWS v1 payload. Status is "ERROR"
// with a message when the CNPJ does not resolve.
type lookupResponse struct {
	Status             string `json:"status"`
	Message            string `json:"message"`
	CNPJ               string `json:"cnpj"`
	Nome               string `json:"nome"`
	Fantasia           string `json:"fantasia"`
	Logradouro         string `json:"logradouro"`
	Numero             string `json:"numero"`
	Bairro             string `json:"bairro"`
	Municipio          string `json:"municipio"`
	UF                 string `json:"uf"`
	Telefone           string `json:"telefone"`
	Email              string `json:"email"`
	Situacao           string `json:"situacao"`
	AtividadePrincipal []struct {
		Text string `json:"text"`
	} `json:"atividade_principal"`
}

// Lookup fetches the registry record for a digit-only CNPJ. Returns
// ErrNotFound when the registry has no record; any other failure is a
// transport error. Idempotent and side-effect free.
func (c *httpClient) Lookup(ctx context.Context, cnpj string) (*model.RegistryRecord, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "receitaws: limiter wait")
		}
	}

	url := fmt.Sprintf("%s/v1/cnpj/%s", c.baseURL, cnpj)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "receitaws: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "receitaws: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "receitaws: read response")
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("receitaws: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var payload lookupResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, eris.Wrap(err, "receitaws: unmarshal response")
	}

	if strings.EqualFold(payload.Status, "ERROR") {
		return nil, ErrNotFound
	}

	rec := &model.RegistryRecord{
		CNPJ:      cnpj,
		LegalName: payload.Nome,
		TradeName: payload.Fantasia,
		Address:   formatAddress(payload),
		Phone:     payload.Telefone,
		Email:     payload.Email,
		Status:    payload.Situacao,
	}
	if len(payload.AtividadePrincipal) > 0 {
		rec.Activity = payload.AtividadePrincipal[0].Text
	}
	return rec, nil
}

// formatAddress assembles "logradouro, numero - bairro, municipio - uf",
// dropping segments the registry left blank.
func formatAddress(p lookupResponse) string {
	var street string
	switch {
	case p.Logradouro != "" && p.Numero != "":
		street = p.Logradouro + ", " + p.Numero
	case p.Logradouro != "":
		street = p.Logradouro
	}

	var city string
	switch {
	case p.Municipio != "" && p.UF != "":
		city = p.Municipio + " - " + p.UF
	case p.Municipio != "":
		city = p.Municipio
	}

	parts := make([]string, 0, 3)
	if street != "" {
		parts = append(parts, street)
	}
	if p.Bairro != "" {
		parts = append(parts, p.Bairro)
	}
	if city != "" {
		parts = append(parts, city)
	}

	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return parts[0] + " - " + strings.Join(parts[1:], ", ")
	}
}
