package domain

import "github.com/shopspring/decimal"

// PaymentMethod — способ оплаты, записываемый в заказ.
const (
	PaymentMethodCard = "card"
	PaymentMethodPix  = "pix"
	PaymentMethodCash = "cash"
)

// Payer описывает плательщика для внешнего процессора.
type Payer struct {
	Email          string
	FirstName      string
	DocumentType   string
	DocumentNumber string
}

// CardCharge — запрос списания с карты.
type CardCharge struct {
	Amount            decimal.Decimal
	Token             string
	Description       string
	Installments      int
	PaymentMethodID   string
	IssuerID          string
	ExternalReference string
	Payer             Payer
}

// PixCharge — запрос на генерацию PIX.
type PixCharge struct {
	Amount            decimal.Decimal
	Description       string
	ExternalReference string
	Payer             Payer
}

// Charge — ответ процессора.
type Charge struct {
	ID           string
	Status       string
	StatusDetail string
	QRCode       string
	QRCodeBase64 string
}

// Validate проверяет сумму списания.
func (c *CardCharge) Validate() []error {
	var errs []error
	if !c.Amount.IsPositive() {
		errs = append(errs, ErrPaymentAmountInvalid)
	}
	return errs
}

// Validate проверяет сумму PIX.
func (c *PixCharge) Validate() []error {
	var errs []error
	if !c.Amount.IsPositive() {
		errs = append(errs, ErrPaymentAmountInvalid)
	}
	return errs
}
