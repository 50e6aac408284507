package payment

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/mercadopago/sdk-go/pkg/config"
	mppayment "github.com/mercadopago/sdk-go/pkg/payment"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

// DefaultTimeout ограничивает каждый вызов Mercado Pago.
const DefaultTimeout = 5 * time.Second

// paymentAPI — часть клиента SDK, которой пользуется шлюз.
type paymentAPI interface {
	Create(ctx context.Context, request mppayment.Request) (*mppayment.Response, error)
	Get(ctx context.Context, id int) (*mppayment.Response, error)
}

// MercadoPagoGateway — реализация domain.PaymentGateway поверх Mercado Pago.
type MercadoPagoGateway struct {
	client  paymentAPI
	timeout time.Duration
}

// NewMercadoPagoGateway создаёт шлюз с access token продавца.
func NewMercadoPagoGateway(accessToken string) (*MercadoPagoGateway, error) {
	cfg, err := config.New(accessToken, config.WithHTTPClient(&http.Client{Timeout: DefaultTimeout}))
	if err != nil {
		return nil, fmt.Errorf("mercadopago config: %w", err)
	}
	return newMercadoPagoGateway(mppayment.NewClient(cfg), DefaultTimeout), nil
}

func newMercadoPagoGateway(client paymentAPI, timeout time.Duration) *MercadoPagoGateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &MercadoPagoGateway{client: client, timeout: timeout}
}

// CreateCardCharge проводит списание по токену карты.
func (g *MercadoPagoGateway) CreateCardCharge(ctx context.Context, charge domain.CardCharge) (domain.Charge, error) {
	request := mppayment.Request{
		TransactionAmount: charge.Amount.InexactFloat64(),
		Token:             charge.Token,
		Description:       charge.Description,
		Installments:      charge.Installments,
		PaymentMethodID:   charge.PaymentMethodID,
		IssuerID:          charge.IssuerID,
		ExternalReference: charge.ExternalReference,
		Payer:             payerRequest(charge.Payer),
	}
	return g.create(ctx, request)
}

// CreatePixCharge создаёт PIX и возвращает QR-код из point_of_interaction.
func (g *MercadoPagoGateway) CreatePixCharge(ctx context.Context, charge domain.PixCharge) (domain.Charge, error) {
	request := mppayment.Request{
		TransactionAmount: charge.Amount.InexactFloat64(),
		Description:       charge.Description,
		PaymentMethodID:   "pix",
		ExternalReference: charge.ExternalReference,
		Payer:             payerRequest(charge.Payer),
	}
	return g.create(ctx, request)
}

// GetPayment запрашивает статус платежа.
func (g *MercadoPagoGateway) GetPayment(ctx context.Context, id string) (domain.Charge, error) {
	numericID, err := strconv.Atoi(id)
	if err != nil || numericID <= 0 {
		return domain.Charge{}, domain.ErrPaymentIDInvalid
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resource, err := g.client.Get(callCtx, numericID)
	if err != nil {
		return domain.Charge{}, fmt.Errorf("%w: get payment %s: %v", domain.ErrPaymentGateway, id, err)
	}
	return domain.Charge{
		ID:           strconv.Itoa(resource.ID),
		Status:       resource.Status,
		StatusDetail: resource.StatusDetail,
	}, nil
}

func (g *MercadoPagoGateway) create(ctx context.Context, request mppayment.Request) (domain.Charge, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resource, err := g.client.Create(callCtx, request)
	if err != nil {
		return domain.Charge{}, fmt.Errorf("%w: create payment: %v", domain.ErrPaymentGateway, err)
	}
	return domain.Charge{
		ID:           strconv.Itoa(resource.ID),
		Status:       resource.Status,
		StatusDetail: resource.StatusDetail,
		QRCode:       resource.PointOfInteraction.TransactionData.QRCode,
		QRCodeBase64: resource.PointOfInteraction.TransactionData.QRCodeBase64,
	}, nil
}

func payerRequest(payer domain.Payer) *mppayment.PayerRequest {
	request := &mppayment.PayerRequest{
		Email:     payer.Email,
		FirstName: payer.FirstName,
	}
	if payer.DocumentType != "" || payer.DocumentNumber != "" {
		request.Identification = &mppayment.IdentificationRequest{
			Type:   payer.DocumentType,
			Number: payer.DocumentNumber,
		}
	}
	return request
}

var _ domain.PaymentGateway = (*MercadoPagoGateway)(nil)
