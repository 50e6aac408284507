package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category — раздел меню.
type Category string

const (
	CategoryBurger  Category = "burger"
	CategoryStarter Category = "starter"
	CategorySide    Category = "side"
	CategoryDrink   Category = "drink"
	CategoryDessert Category = "dessert"
	CategorySauce   Category = "sauce"
	CategoryAddon   Category = "addon"
)

// ParseCategory нормализует категорию.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", ErrCategoryInvalid
	}
	return c, nil
}

// Valid проверяет, что категория известна.
func (c Category) Valid() bool {
	switch c {
	case CategoryBurger, CategoryStarter, CategorySide, CategoryDrink,
		CategoryDessert, CategorySauce, CategoryAddon:
		return true
	default:
		return false
	}
}

// Product — позиция меню.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	Category    Category
	Available   bool
	// AddonIDs — добавки, которые можно выбрать к продукту.
	AddonIDs  []string
	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Trashed сообщает, что продукт в корзине.
func (p *Product) Trashed() bool {
	return p.DeletedAt != nil
}

// Validate проверяет поля продукта.
func (p *Product) Validate() []error {
	var errs []error
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, ErrNameRequired)
	}
	if p.Price.IsNegative() {
		errs = append(errs, ErrPriceNegative)
	}
	if !p.Category.Valid() {
		errs = append(errs, ErrCategoryInvalid)
	}
	return errs
}

// Addon — платная добавка.
type Addon struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	Category  string
	Available bool
	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Trashed сообщает, что добавка в корзине.
func (a *Addon) Trashed() bool {
	return a.DeletedAt != nil
}

// Validate проверяет поля добавки.
func (a *Addon) Validate() []error {
	var errs []error
	if strings.TrimSpace(a.Name) == "" {
		errs = append(errs, ErrNameRequired)
	}
	if a.Price.IsNegative() {
		errs = append(errs, ErrPriceNegative)
	}
	return errs
}

// CatalogFilter задаёт выборку продуктов и добавок.
type CatalogFilter struct {
	// Category — пусто означает любую категорию.
	Category string
	// Available — nil означает без фильтра.
	Available *bool
	// Trashed выбирает корзину вместо активных позиций.
	Trashed bool
}
