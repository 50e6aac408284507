package payment

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

// Статусы процессора, которые возвращает MockGateway.
const (
	StatusApproved = "approved"
	StatusPending  = "pending"
	StatusRejected = "rejected"
)

// MockGateway — детерминированный процессор для разработки и тестов.
// Карта одобряется, если токен не равен RejectToken; PIX всегда pending.
type MockGateway struct {
	mu       sync.Mutex
	seq      int
	payments map[string]domain.Charge

	// RejectToken — токен карты, для которого возвращается rejected.
	RejectToken string
	// Err, если задан, возвращается из всех вызовов.
	Err error
}

// NewMockGateway создаёт заглушку процессора.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		payments:    make(map[string]domain.Charge),
		RejectToken: "reject",
	}
}

// CreateCardCharge одобряет или отклоняет списание по токену.
func (m *MockGateway) CreateCardCharge(_ context.Context, charge domain.CardCharge) (domain.Charge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return domain.Charge{}, m.Err
	}

	result := domain.Charge{ID: m.nextID(), Status: StatusApproved, StatusDetail: "accredited"}
	if charge.Token == m.RejectToken {
		result.Status, result.StatusDetail = StatusRejected, "cc_rejected_other_reason"
	}
	m.payments[result.ID] = result
	return result, nil
}

// CreatePixCharge возвращает pending-платёж с фиктивным QR-кодом.
func (m *MockGateway) CreatePixCharge(_ context.Context, charge domain.PixCharge) (domain.Charge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return domain.Charge{}, m.Err
	}

	id := m.nextID()
	code := fmt.Sprintf("00020126MOCKPIX%s5204000053039865406%s", id, charge.Amount.StringFixed(2))
	result := domain.Charge{
		ID:           id,
		Status:       StatusPending,
		StatusDetail: "pending_waiting_transfer",
		QRCode:       code,
		QRCodeBase64: base64.StdEncoding.EncodeToString([]byte(code)),
	}
	m.payments[id] = result
	return result, nil
}

// GetPayment возвращает ранее созданный платёж.
func (m *MockGateway) GetPayment(_ context.Context, id string) (domain.Charge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return domain.Charge{}, m.Err
	}

	result, ok := m.payments[id]
	if !ok {
		return domain.Charge{}, fmt.Errorf("%w: payment %s", domain.ErrNotFound, id)
	}
	return domain.Charge{ID: result.ID, Status: result.Status, StatusDetail: result.StatusDetail}, nil
}

func (m *MockGateway) nextID() string {
	m.seq++
	return fmt.Sprintf("mock-%d", m.seq)
}

var _ domain.PaymentGateway = (*MockGateway)(nil)
