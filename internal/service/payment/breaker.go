package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

// ErrCircuitOpen — процессор недавно отказывал подряд, запросы временно не отправляются.
var ErrCircuitOpen = fmt.Errorf("%w: circuit breaker is open", domain.ErrPaymentGateway)

type circuitState int

const (
	circuitClosed circuitState = iota
	circuitOpen
	circuitHalfOpen
)

func (s circuitState) String() string {
	switch s {
	case circuitOpen:
		return "open"
	case circuitHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// BreakerConfig — пороги circuit breaker и повторов чтения статуса.
type BreakerConfig struct {
	MaxFailures   int
	ResetTimeout  time.Duration
	ReadAttempts  int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultBreakerConfig возвращает конфигурацию по умолчанию.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures:   5,
		ResetTimeout:  30 * time.Second,
		ReadAttempts:  3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
	}
}

// BreakerGateway защищает процессор circuit breaker'ом. Списания не повторяются,
// чтобы не провести платёж дважды; GetPayment идемпотентен и повторяется с backoff.
type BreakerGateway struct {
	next   domain.PaymentGateway
	cfg    BreakerConfig
	logger *log.Entry
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error

	mu          sync.Mutex
	state       circuitState
	failures    int
	lastFailure time.Time
}

// NewBreakerGateway оборачивает gateway; нулевые значения cfg заменяются значениями по умолчанию.
func NewBreakerGateway(next domain.PaymentGateway, cfg BreakerConfig, logger *log.Entry) *BreakerGateway {
	def := DefaultBreakerConfig()
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = def.MaxFailures
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = def.ResetTimeout
	}
	if cfg.ReadAttempts <= 0 {
		cfg.ReadAttempts = def.ReadAttempts
	}
	if cfg.BackoffFactor < 1 {
		cfg.BackoffFactor = def.BackoffFactor
	}
	if logger == nil {
		logger = log.WithField("component", "payment-breaker")
	}
	return &BreakerGateway{
		next:   next,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// CreateCardCharge выполняет списание картой через breaker, без повторов.
func (g *BreakerGateway) CreateCardCharge(ctx context.Context, charge domain.CardCharge) (domain.Charge, error) {
	var result domain.Charge
	err := g.execute("card_charge", func() error {
		var err error
		result, err = g.next.CreateCardCharge(ctx, charge)
		return err
	})
	return result, err
}

// CreatePixCharge создаёт PIX-платёж через breaker, без повторов.
func (g *BreakerGateway) CreatePixCharge(ctx context.Context, charge domain.PixCharge) (domain.Charge, error) {
	var result domain.Charge
	err := g.execute("pix_charge", func() error {
		var err error
		result, err = g.next.CreatePixCharge(ctx, charge)
		return err
	})
	return result, err
}

// GetPayment читает статус с экспоненциальным backoff между попытками.
func (g *BreakerGateway) GetPayment(ctx context.Context, id string) (domain.Charge, error) {
	var (
		result domain.Charge
		err    error
	)
	delay := g.cfg.InitialDelay
	for attempt := 1; attempt <= g.cfg.ReadAttempts; attempt++ {
		err = g.execute("get_payment", func() error {
			var callErr error
			result, callErr = g.next.GetPayment(ctx, id)
			return callErr
		})
		if err == nil || !retryable(err) || attempt == g.cfg.ReadAttempts {
			break
		}

		g.logger.WithError(err).WithFields(log.Fields{
			"payment_id": id,
			"attempt":    attempt,
			"delay":      delay,
		}).Warn("payment status read failed, retrying")
		if sleepErr := g.sleep(ctx, delay); sleepErr != nil {
			return domain.Charge{}, sleepErr
		}
		delay = time.Duration(float64(delay) * g.cfg.BackoffFactor)
		if g.cfg.MaxDelay > 0 && delay > g.cfg.MaxDelay {
			delay = g.cfg.MaxDelay
		}
	}
	return result, err
}

func (g *BreakerGateway) execute(operation string, fn func() error) error {
	if !g.allow(operation) {
		return ErrCircuitOpen
	}
	err := fn()
	g.record(operation, err)
	return err
}

func (g *BreakerGateway) allow(operation string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case circuitOpen:
		if g.now().Sub(g.lastFailure) < g.cfg.ResetTimeout {
			return false
		}
		g.state = circuitHalfOpen
		g.logger.WithField("operation", operation).Info("payment circuit half-open")
		return true
	case circuitHalfOpen:
		// Пока пробный запрос не завершился, остальные отклоняются.
		return false
	default:
		return true
	}
}

func (g *BreakerGateway) record(operation string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err == nil || !countsAsFailure(err) {
		if g.state == circuitHalfOpen {
			g.logger.WithField("operation", operation).Info("payment circuit closed")
		}
		g.state = circuitClosed
		g.failures = 0
		return
	}

	g.failures++
	g.lastFailure = g.now()
	if g.state == circuitHalfOpen || g.failures >= g.cfg.MaxFailures {
		g.state = circuitOpen
		g.logger.WithFields(log.Fields{
			"operation": operation,
			"failures":  g.failures,
		}).Warn("payment circuit opened")
	}
}

// State возвращает текущее состояние breaker'а ("closed", "open", "half-open").
func (g *BreakerGateway) State() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.String()
}

// countsAsFailure: содержательные ответы процессора и отмена запроса клиентом
// не говорят о его недоступности.
func countsAsFailure(err error) bool {
	for _, benign := range []error{domain.ErrNotFound, domain.ErrValidation, context.Canceled} {
		if errors.Is(err, benign) {
			return false
		}
	}
	return true
}

func retryable(err error) bool {
	return countsAsFailure(err) && !errors.Is(err, ErrCircuitOpen) && !errors.Is(err, context.DeadlineExceeded)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ domain.PaymentGateway = (*BreakerGateway)(nil)
