package httpapi

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/rms/internal/domain"
	"github.com/vladislavdragonenkov/rms/internal/service/catalog"
)

type productRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl"`
	Category    string          `json:"category"`
	Available   *bool           `json:"available"`
	AddonIDs    []string        `json:"addonIds"`
}

func (r productRequest) input() catalog.ProductInput {
	return catalog.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		ImageURL:    r.ImageURL,
		Category:    r.Category,
		Available:   r.Available,
		AddonIDs:    r.AddonIDs,
	}
}

type addonRequest struct {
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category"`
	Available *bool           `json:"available"`
}

func (r addonRequest) input() catalog.AddonInput {
	return catalog.AddonInput{Name: r.Name, Price: r.Price, Category: r.Category, Available: r.Available}
}

// catalogFilter читает ?category= и ?available=.
func catalogFilter(c *gin.Context) (domain.CatalogFilter, error) {
	filter := domain.CatalogFilter{Category: c.Query("category")}
	if raw := c.Query("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			return domain.CatalogFilter{}, errBadBody(err)
		}
		filter.Available = &available
	}
	return filter, nil
}

func productDTOs(products []domain.Product) []productDTO {
	result := make([]productDTO, 0, len(products))
	for _, p := range products {
		result = append(result, toProductDTO(p))
	}
	return result
}

func addonDTOs(addons []domain.Addon) []addonDTO {
	result := make([]addonDTO, 0, len(addons))
	for _, a := range addons {
		result = append(result, toAddonDTO(a))
	}
	return result
}

func (h *handler) listProducts(c *gin.Context) {
	filter, err := catalogFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	products, err := h.Catalog.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, productDTOs(products))
}

func (h *handler) listProductTrash(c *gin.Context) {
	products, err := h.Catalog.ListProductTrash(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, productDTOs(products))
}

func (h *handler) getProduct(c *gin.Context) {
	product, err := h.Catalog.GetProduct(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toProductDTO(product))
}

func (h *handler) createProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errBadBody(err))
		return
	}
	product, err := h.Catalog.CreateProduct(c.Request.Context(), actorFrom(c), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, toProductDTO(product))
}

func (h *handler) updateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errBadBody(err))
		return
	}
	product, err := h.Catalog.UpdateProduct(c.Request.Context(), actorFrom(c), c.Param("id"), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toProductDTO(product))
}

func (h *handler) trashProduct(c *gin.Context) {
	h.catalogAction(c, h.Catalog.TrashProduct)
}

func (h *handler) restoreProduct(c *gin.Context) {
	h.catalogAction(c, h.Catalog.RestoreProduct)
}

func (h *handler) deleteProduct(c *gin.Context) {
	h.catalogAction(c, h.Catalog.DeleteProduct)
}

func (h *handler) listAddons(c *gin.Context) {
	filter, err := catalogFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	addons, err := h.Catalog.ListAddons(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, addonDTOs(addons))
}

func (h *handler) listAddonTrash(c *gin.Context) {
	addons, err := h.Catalog.ListAddonTrash(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, addonDTOs(addons))
}

func (h *handler) getAddon(c *gin.Context) {
	addon, err := h.Catalog.GetAddon(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toAddonDTO(addon))
}

func (h *handler) createAddon(c *gin.Context) {
	var req addonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errBadBody(err))
		return
	}
	addon, err := h.Catalog.CreateAddon(c.Request.Context(), actorFrom(c), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, toAddonDTO(addon))
}

func (h *handler) updateAddon(c *gin.Context) {
	var req addonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errBadBody(err))
		return
	}
	addon, err := h.Catalog.UpdateAddon(c.Request.Context(), actorFrom(c), c.Param("id"), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toAddonDTO(addon))
}

func (h *handler) trashAddon(c *gin.Context) {
	h.catalogAction(c, h.Catalog.TrashAddon)
}

func (h *handler) restoreAddon(c *gin.Context) {
	h.catalogAction(c, h.Catalog.RestoreAddon)
}

func (h *handler) deleteAddon(c *gin.Context) {
	h.catalogAction(c, h.Catalog.DeleteAddon)
}
