package gateway

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// SandboxGateway keeps orders in memory. It backs local development when no
// gateway keys are configured, and tests.
type SandboxGateway struct {
	mu      sync.Mutex
	orders  map[string]*Order
	created []OrderRequest
}

func NewSandboxGateway() *SandboxGateway {
	return &SandboxGateway{orders: make(map[string]*Order)}
}

func (g *SandboxGateway) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	notes := make(map[string]string, len(req.Notes))
	for k, v := range req.Notes {
		notes[k] = v
	}
	order := &Order{
		ID:       "order_" + uuid.NewString()[:14],
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Status:   "created",
		Notes:    notes,
	}
	g.orders[order.ID] = order
	g.created = append(g.created, req)

	copied := *order
	return &copied, nil
}

func (g *SandboxGateway) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	order, ok := g.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	copied := *order
	copied.Notes = make(map[string]string, len(order.Notes))
	for k, v := range order.Notes {
		copied.Notes[k] = v
	}
	return &copied, nil
}

// PutOrder registers an order as if it had been created elsewhere.
func (g *SandboxGateway) PutOrder(order *Order) {
	g.mu.Lock()
	defer g.mu.Unlock()
	copied := *order
	g.orders[order.ID] = &copied
}

// Requests returns every order request received, oldest first.
func (g *SandboxGateway) Requests() []OrderRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]OrderRequest(nil), g.created...)
}
