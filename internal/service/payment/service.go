// Package payment проводит платежи картой и PIX через внешний процессор.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

// Service проверяет запросы и передаёт их процессору.
// Заказ хранит только paymentMethod/paymentId; связь с заказом ведёт клиент.
type Service struct {
	gateway domain.PaymentGateway
	logger  *log.Entry
}

// NewService создаёт платёжный сервис.
func NewService(gateway domain.PaymentGateway, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "payment")
	}
	return &Service{gateway: gateway, logger: logger}
}

// ChargeCard списывает сумму с карты.
func (s *Service) ChargeCard(ctx context.Context, actor domain.Actor, charge domain.CardCharge) (domain.Charge, error) {
	if errs := charge.Validate(); len(errs) > 0 {
		return domain.Charge{}, errors.Join(errs...)
	}
	if charge.Installments <= 0 {
		charge.Installments = 1
	}

	result, err := s.gateway.CreateCardCharge(ctx, charge)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", actor.UserID).Error("card charge failed")
		return domain.Charge{}, wrapGatewayError(err)
	}
	s.logger.WithFields(log.Fields{
		"user_id":    actor.UserID,
		"payment_id": result.ID,
		"status":     result.Status,
	}).Info("card charge processed")
	return result, nil
}

// ChargePix создаёт PIX-платёж и возвращает QR-код.
func (s *Service) ChargePix(ctx context.Context, actor domain.Actor, charge domain.PixCharge) (domain.Charge, error) {
	if errs := charge.Validate(); len(errs) > 0 {
		return domain.Charge{}, errors.Join(errs...)
	}

	result, err := s.gateway.CreatePixCharge(ctx, charge)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", actor.UserID).Error("pix charge failed")
		return domain.Charge{}, wrapGatewayError(err)
	}
	s.logger.WithFields(log.Fields{
		"user_id":    actor.UserID,
		"payment_id": result.ID,
		"status":     result.Status,
	}).Info("pix charge created")
	return result, nil
}

// Status возвращает текущее состояние платежа у процессора.
func (s *Service) Status(ctx context.Context, id string) (domain.Charge, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Charge{}, domain.ErrPaymentIDInvalid
	}
	result, err := s.gateway.GetPayment(ctx, id)
	if err != nil {
		return domain.Charge{}, wrapGatewayError(err)
	}
	return result, nil
}

// wrapGatewayError оставляет доменные ошибки как есть, остальное помечает ErrPaymentGateway.
func wrapGatewayError(err error) error {
	for _, kind := range []error{domain.ErrValidation, domain.ErrNotFound, domain.ErrPaymentGateway} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrPaymentGateway, err)
}
