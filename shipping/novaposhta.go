package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"storefront-svc/circuitbreaker"
	"storefront-svc/config"
	"storefront-svc/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	breakerMaxFailures  = 5
	breakerResetTimeout = 30 * time.Second
	maxResponseBytes    = 1 << 20
)

var tracer = otel.Tracer("storefront/shipping")

// NovaPoshtaClient talks to the Nova Poshta JSON API.
type NovaPoshtaClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
}

func NewNovaPoshtaClient(apiKey string, cfg config.CarrierConfig) *NovaPoshtaClient {
	return &NovaPoshtaClient{
		apiKey:  apiKey,
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		breaker: circuitbreaker.NewCircuitBreaker(breakerMaxFailures, breakerResetTimeout),
	}
}

type npRequest struct {
	APIKey           string         `json:"apiKey"`
	ModelName        string         `json:"modelName"`
	CalledMethod     string         `json:"calledMethod"`
	MethodProperties map[string]any `json:"methodProperties"`
}

type npResponse[T any] struct {
	Success bool     `json:"success"`
	Data    []T      `json:"data"`
	Errors  []string `json:"errors"`
}

type npSettlementPage struct {
	TotalCount int `json:"TotalCount"`
	Addresses  []struct {
		Present string `json:"Present"`
		Ref     string `json:"Ref"`
	} `json:"Addresses"`
}

type npWarehouse struct {
	Description string `json:"Description"`
}

func (c *NovaPoshtaClient) SearchSettlements(ctx context.Context, query string, limit int) ([]models.Settlement, error) {
	var resp npResponse[npSettlementPage]
	err := c.call(ctx, "searchSettlements", map[string]any{
		"CityName": query,
		"Limit":    limit,
	}, &resp)
	if err != nil {
		return nil, err
	}

	settlements := []models.Settlement{}
	if len(resp.Data) == 0 {
		return settlements, nil
	}
	for _, a := range resp.Data[0].Addresses {
		settlements = append(settlements, models.Settlement{Label: a.Present, Ref: a.Ref})
	}
	return settlements, nil
}

func (c *NovaPoshtaClient) ListWarehouses(ctx context.Context, settlementRef string) ([]string, error) {
	var resp npResponse[npWarehouse]
	err := c.call(ctx, "getWarehouses", map[string]any{
		"SettlementRef": settlementRef,
	}, &resp)
	if err != nil {
		return nil, err
	}

	warehouses := make([]string, 0, len(resp.Data))
	for _, w := range resp.Data {
		warehouses = append(warehouses, w.Description)
	}
	return warehouses, nil
}

// call posts one Address model request through the circuit breaker and
// checks the success flag of the reply.
func (c *NovaPoshtaClient) call(ctx context.Context, method string, props map[string]any, out interface {
	succeeded() (bool, []string)
}) error {
	ctx, span := tracer.Start(ctx, "NovaPoshta."+method)
	defer span.End()
	span.SetAttributes(attribute.String("carrier.method", method))

	err := c.breaker.Execute(ctx, func() error {
		if err := c.doRequest(ctx, npRequest{
			APIKey:           c.apiKey,
			ModelName:        "Address",
			CalledMethod:     method,
			MethodProperties: props,
		}, out); err != nil {
			return err
		}
		if ok, errs := out.succeeded(); !ok {
			return fmt.Errorf("%s returned success=false: %v", method, errs)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return nil
}

func (r *npResponse[T]) succeeded() (bool, []string) {
	return r.Success, r.Errors
}

func (c *NovaPoshtaClient) doRequest(ctx context.Context, body npRequest, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("nova poshta API error (status %d)", resp.StatusCode)
	}

	if err := json.Unmarshal(respBytes, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
