package httpapi

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/rms/internal/domain"
	"github.com/vladislavdragonenkov/rms/internal/service/addressbook"
	"github.com/vladislavdragonenkov/rms/internal/service/storestatus"
)

// catalogAction обслуживает trash/restore/permanent-delete: только id, без тела.
func (h *handler) catalogAction(c *gin.Context, action func(context.Context, domain.Actor, string) error) {
	if err := action(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondNoContent(c)
}

type addressRequest struct {
	ZipCode      string `json:"zipCode"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	Nickname     string `json:"nickname"`
}

func (r addressRequest) input() addressbook.AddressInput {
	return addressbook.AddressInput(r)
}

func (h *handler) listAddresses(c *gin.Context) {
	addresses, err := h.Addresses.List(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	result := make([]addressDTO, 0, len(addresses))
	for _, a := range addresses {
		result = append(result, toAddressDTO(a))
	}
	respondOK(c, result)
}

func (h *handler) createAddress(c *gin.Context) {
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errBadBody(err))
		return
	}
	address, err := h.Addresses.Create(c.Request.Context(), actorFrom(c), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, toAddressDTO(address))
}

func (h *handler) getAddress(c *gin.Context) {
	address, err := h.Addresses.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toAddressDTO(address))
}

func (h *handler) updateAddress(c *gin.Context) {
	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errBadBody(err))
		return
	}
	address, err := h.Addresses.Update(c.Request.Context(), actorFrom(c), c.Param("id"), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toAddressDTO(address))
}

func (h *handler) deleteAddress(c *gin.Context) {
	if err := h.Addresses.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondNoContent(c)
}

type storeStatusRequest struct {
	IsOpen         *bool   `json:"isOpen"`
	OpeningMessage *string `json:"openingMessage"`
	ClosingMessage *string `json:"closingMessage"`
}

func (h *handler) getStoreStatus(c *gin.Context) {
	cfg, err := h.Store.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toStoreStatusDTO(cfg))
}

func (h *handler) updateStoreStatus(c *gin.Context) {
	var req storeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errBadBody(err))
		return
	}
	cfg, err := h.Store.Update(c.Request.Context(), actorFrom(c), storestatus.UpdateInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toStoreStatusDTO(cfg))
}

type payerRequest struct {
	Email          string `json:"email"`
	FirstName      string `json:"firstName"`
	Identification struct {
		Type   string `json:"type"`
		Number string `json:"number"`
	} `json:"identification"`
}

func (p payerRequest) payer() domain.Payer {
	return domain.Payer{
		Email:          p.Email,
		FirstName:      p.FirstName,
		DocumentType:   p.Identification.Type,
		DocumentNumber: p.Identification.Number,
	}
}

type cardChargeRequest struct {
	Amount            decimal.Decimal `json:"amount"`
	Token             string          `json:"token"`
	Description       string          `json:"description"`
	Installments      int             `json:"installments"`
	PaymentMethodID   string          `json:"paymentMethodId"`
	IssuerID          string          `json:"issuerId"`
	ExternalReference string          `json:"externalReference"`
	Payer             payerRequest    `json:"payer"`
}

type pixChargeRequest struct {
	Amount            decimal.Decimal `json:"amount"`
	Description       string          `json:"description"`
	ExternalReference string          `json:"externalReference"`
	Payer             payerRequest    `json:"payer"`
}

func (h *handler) chargeCard(c *gin.Context) {
	var req cardChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errBadBody(err))
		return
	}
	charge, err := h.Payments.ChargeCard(c.Request.Context(), actorFrom(c), domain.CardCharge{
		Amount:            req.Amount,
		Token:             req.Token,
		Description:       req.Description,
		Installments:      req.Installments,
		PaymentMethodID:   req.PaymentMethodID,
		IssuerID:          req.IssuerID,
		ExternalReference: req.ExternalReference,
		Payer:             req.Payer.payer(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, toChargeDTO(charge))
}

func (h *handler) chargePix(c *gin.Context) {
	var req pixChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errBadBody(err))
		return
	}
	charge, err := h.Payments.ChargePix(c.Request.Context(), actorFrom(c), domain.PixCharge{
		Amount:            req.Amount,
		Description:       req.Description,
		ExternalReference: req.ExternalReference,
		Payer:             req.Payer.payer(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, toChargeDTO(charge))
}

func (h *handler) paymentStatus(c *gin.Context) {
	charge, err := h.Payments.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toChargeDTO(charge))
}
