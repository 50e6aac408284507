package httpapi

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/rms/internal/domain"
	"github.com/vladislavdragonenkov/rms/internal/service/account"
)

// money сериализует сумму JSON-числом с двумя знаками.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

type userDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserDTO(u domain.User) userDTO {
	return userDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}

type sessionDTO struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      userDTO   `json:"user"`
}

func toSessionDTO(s account.Session) sessionDTO {
	return sessionDTO{Token: s.Token, ExpiresAt: s.ExpiresAt, User: toUserDTO(s.User)}
}

type productDTO struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	ImageURL    string      `json:"imageUrl"`
	Category    string      `json:"category"`
	Available   bool        `json:"available"`
	AddonIDs    []string    `json:"addonIds"`
	DeletedAt   *time.Time  `json:"deletedAt,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func toProductDTO(p domain.Product) productDTO {
	addonIDs := p.AddonIDs
	if addonIDs == nil {
		addonIDs = []string{}
	}
	return productDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       money(p.Price),
		ImageURL:    p.ImageURL,
		Category:    string(p.Category),
		Available:   p.Available,
		AddonIDs:    addonIDs,
		DeletedAt:   p.DeletedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type addonDTO struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Price     json.Number `json:"price"`
	Category  string      `json:"category"`
	Available bool        `json:"available"`
	DeletedAt *time.Time  `json:"deletedAt,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func toAddonDTO(a domain.Addon) addonDTO {
	return addonDTO{
		ID:        a.ID,
		Name:      a.Name,
		Price:     money(a.Price),
		Category:  a.Category,
		Available: a.Available,
		DeletedAt: a.DeletedAt,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

type addressDTO struct {
	ID           string    `json:"id"`
	ZipCode      string    `json:"zipCode"`
	Street       string    `json:"street"`
	Number       string    `json:"number"`
	Complement   string    `json:"complement"`
	Neighborhood string    `json:"neighborhood"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	Nickname     string    `json:"nickname"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toAddressDTO(a domain.Address) addressDTO {
	return addressDTO{
		ID:           a.ID,
		ZipCode:      a.ZipCode,
		Street:       a.Street,
		Number:       a.Number,
		Complement:   a.Complement,
		Neighborhood: a.Neighborhood,
		City:         a.City,
		State:        a.State,
		Nickname:     a.Nickname,
		CreatedAt:    a.CreatedAt,
	}
}

type addressSnapshotDTO struct {
	ZipCode      string `json:"zipCode"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

type itemAddonDTO struct {
	AddonID string      `json:"addonId"`
	Name    string      `json:"name"`
	Price   json.Number `json:"price"`
}

type orderItemDTO struct {
	ID                 string         `json:"id"`
	ProductID          string         `json:"productId"`
	ProductName        string         `json:"productName"`
	Quantity           int            `json:"quantity"`
	UnitPrice          json.Number    `json:"unitPrice"`
	Subtotal           json.Number    `json:"subtotal"`
	Observation        string         `json:"observation,omitempty"`
	MeatPoint          string         `json:"meatPoint,omitempty"`
	RemovedIngredients []string       `json:"removedIngredients"`
	Addons             []itemAddonDTO `json:"addons"`
}

type orderDTO struct {
	ID                    string              `json:"id"`
	CustomerID            string              `json:"customerId"`
	Status                string              `json:"status"`
	PaymentStatus         string              `json:"paymentStatus"`
	Type                  string              `json:"type"`
	AddressID             string              `json:"addressId,omitempty"`
	Address               *addressSnapshotDTO `json:"address,omitempty"`
	DeliveryFee           json.Number         `json:"deliveryFee"`
	EstimatedDeliveryTime string              `json:"estimatedDeliveryTime"`
	TotalPrice            json.Number         `json:"totalPrice"`
	PaymentMethod         string              `json:"paymentMethod"`
	PaymentID             string              `json:"paymentId,omitempty"`
	Items                 []orderItemDTO      `json:"items"`
	Version               int64               `json:"version"`
	CreatedAt             time.Time           `json:"createdAt"`
	UpdatedAt             time.Time           `json:"updatedAt"`
}

func toOrderDTO(o domain.Order) orderDTO {
	dto := orderDTO{
		ID:                    o.ID,
		CustomerID:            o.CustomerID,
		Status:                string(o.Status),
		PaymentStatus:         string(o.PaymentStatus),
		Type:                  string(o.Type),
		AddressID:             o.AddressID,
		DeliveryFee:           money(o.DeliveryFee),
		EstimatedDeliveryTime: o.EstimatedDeliveryTime,
		TotalPrice:            money(o.TotalPrice),
		PaymentMethod:         o.PaymentMethod,
		PaymentID:             o.PaymentID,
		Items:                 make([]orderItemDTO, 0, len(o.Items)),
		Version:               o.Version,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
	}
	if a := o.Address; a != nil {
		dto.Address = &addressSnapshotDTO{
			ZipCode:      a.ZipCode,
			Street:       a.Street,
			Number:       a.Number,
			Complement:   a.Complement,
			Neighborhood: a.Neighborhood,
			City:         a.City,
			State:        a.State,
		}
	}
	for _, item := range o.Items {
		addons := make([]itemAddonDTO, 0, len(item.Addons))
		for _, a := range item.Addons {
			addons = append(addons, itemAddonDTO{AddonID: a.AddonID, Name: a.Name, Price: money(a.Price)})
		}
		removed := item.RemovedIngredients
		if removed == nil {
			removed = []string{}
		}
		dto.Items = append(dto.Items, orderItemDTO{
			ID:                 item.ID,
			ProductID:          item.ProductID,
			ProductName:        item.ProductName,
			Quantity:           item.Quantity,
			UnitPrice:          money(item.UnitPrice),
			Subtotal:           money(item.Subtotal),
			Observation:        item.Observation,
			MeatPoint:          item.MeatPoint,
			RemovedIngredients: removed,
			Addons:             addons,
		})
	}
	return dto
}

func toOrderDTOs(orders []domain.Order) []orderDTO {
	result := make([]orderDTO, 0, len(orders))
	for _, o := range orders {
		result = append(result, toOrderDTO(o))
	}
	return result
}

type timelineEventDTO struct {
	Type       string    `json:"type"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	ActorID    string    `json:"actorId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type storeStatusDTO struct {
	IsOpen         bool      `json:"isOpen"`
	OpeningMessage string    `json:"openingMessage"`
	ClosingMessage string    `json:"closingMessage"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func toStoreStatusDTO(cfg domain.StoreConfig) storeStatusDTO {
	return storeStatusDTO{
		IsOpen:         cfg.IsOpen,
		OpeningMessage: cfg.OpeningMessage,
		ClosingMessage: cfg.ClosingMessage,
		UpdatedAt:      cfg.UpdatedAt,
	}
}

type summaryDTO struct {
	TotalOrders     int            `json:"totalOrders"`
	Revenue         json.Number    `json:"revenue"`
	ByStatus        map[string]int `json:"byStatus"`
	PendingPayments int            `json:"pendingPayments"`
}

type dailyRevenueDTO struct {
	Date    string      `json:"date"`
	Revenue json.Number `json:"revenue"`
	Orders  int         `json:"orders"`
}

type topProductDTO struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

type chartDTO struct {
	Days        []dailyRevenueDTO `json:"days"`
	TopProducts []topProductDTO   `json:"topProducts"`
}

type chargeDTO struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	StatusDetail string `json:"statusDetail,omitempty"`
	QRCode       string `json:"qrCode,omitempty"`
	QRCodeBase64 string `json:"qrCodeBase64,omitempty"`
}

func toChargeDTO(c domain.Charge) chargeDTO {
	return chargeDTO(c)
}
