package httpapi

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/rms/internal/service/ordering"
)

type cartLineRequest struct {
	ProductID          string   `json:"productId"`
	Quantity           int      `json:"quantity"`
	AddonIDs           []string `json:"addonIds"`
	Observation        string   `json:"observation"`
	MeatPoint          string   `json:"meatPoint"`
	RemovedIngredients []string `json:"removedIngredients"`
}

type createOrderRequest struct {
	Items         []cartLineRequest `json:"items"`
	Type          string            `json:"type"`
	AddressID     string            `json:"addressId"`
	PaymentMethod string            `json:"paymentMethod"`
	PaymentID     string            `json:"paymentId"`
}

func (r createOrderRequest) input() ordering.CreateOrderInput {
	lines := make([]ordering.CartLine, 0, len(r.Items))
	for _, item := range r.Items {
		lines = append(lines, ordering.CartLine(item))
	}
	return ordering.CreateOrderInput{
		Items:         lines,
		Type:          r.Type,
		AddressID:     r.AddressID,
		PaymentMethod: r.PaymentMethod,
		PaymentID:     r.PaymentID,
	}
}

type updateOrderRequest struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
}

func (h *handler) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errBadBody(err))
		return
	}
	order, err := h.Orders.Create(c.Request.Context(), actorFrom(c), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, toOrderDTO(order))
}

func (h *handler) listOrders(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, errBadBody(err))
			return
		}
		limit = parsed
	}
	orders, err := h.Orders.List(c.Request.Context(), actorFrom(c), ordering.ListInput{
		Status: c.Query("status"),
		Limit:  limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toOrderDTOs(orders))
}

func (h *handler) getOrder(c *gin.Context) {
	order, err := h.Orders.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toOrderDTO(order))
}

func (h *handler) orderTimeline(c *gin.Context) {
	events, err := h.Orders.Timeline(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	result := make([]timelineEventDTO, 0, len(events))
	for _, e := range events {
		result = append(result, timelineEventDTO{
			Type:       e.Type,
			Status:     e.Status,
			Reason:     e.Reason,
			ActorID:    e.ActorID,
			OccurredAt: e.Occurred,
		})
	}
	respondOK(c, result)
}

func (h *handler) updateOrder(c *gin.Context) {
	var req updateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errBadBody(err))
		return
	}
	order, err := h.Orders.Update(c.Request.Context(), actorFrom(c), c.Param("id"), ordering.UpdateInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toOrderDTO(order))
}

func (h *handler) cancelOrder(c *gin.Context) {
	order, err := h.Orders.Cancel(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toOrderDTO(order))
}

func (h *handler) orderSummary(c *gin.Context) {
	summary, err := h.Dashboard.Summary(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	byStatus := make(map[string]int, len(summary.ByStatus))
	for status, count := range summary.ByStatus {
		byStatus[string(status)] = count
	}
	respondOK(c, summaryDTO{
		TotalOrders:     summary.TotalOrders,
		Revenue:         money(summary.Revenue),
		ByStatus:        byStatus,
		PendingPayments: summary.PendingPayments,
	})
}

func (h *handler) orderChart(c *gin.Context) {
	chart, err := h.Dashboard.Chart(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	dto := chartDTO{
		Days:        make([]dailyRevenueDTO, 0, len(chart.Days)),
		TopProducts: make([]topProductDTO, 0, len(chart.TopProducts)),
	}
	for _, d := range chart.Days {
		dto.Days = append(dto.Days, dailyRevenueDTO{Date: d.Date, Revenue: money(d.Revenue), Orders: d.Orders})
	}
	for _, p := range chart.TopProducts {
		dto.TopProducts = append(dto.TopProducts, topProductDTO(p))
	}
	respondOK(c, dto)
}
