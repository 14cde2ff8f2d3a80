package shipping

import (
	"context"
	"errors"

	"storefront-svc/models"
)

// ErrUpstreamUnavailable wraps every failure of the carrier API: transport
// errors, timeouts, non-2xx replies, unsuccessful payloads and an open
// circuit.
var ErrUpstreamUnavailable = errors.New("carrier API unavailable")

type Carrier interface {
	SearchSettlements(ctx context.Context, query string, limit int) ([]models.Settlement, error)
	ListWarehouses(ctx context.Context, settlementRef string) ([]string, error)
}
