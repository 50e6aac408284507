package domain

import (
	"strings"
	"time"
)

// Address — сохранённый адрес доставки клиента.
type Address struct {
	ID           string
	UserID       string
	ZipCode      string
	Street       string
	Number       string
	Complement   string
	Neighborhood string
	City         string
	State        string
	Nickname     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Normalize убирает пробелы и приводит штат к верхнему регистру.
func (a *Address) Normalize() {
	a.ZipCode = strings.TrimSpace(a.ZipCode)
	a.Street = strings.TrimSpace(a.Street)
	a.Number = strings.TrimSpace(a.Number)
	a.Complement = strings.TrimSpace(a.Complement)
	a.Neighborhood = strings.TrimSpace(a.Neighborhood)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.ToUpper(strings.TrimSpace(a.State))
	a.Nickname = strings.TrimSpace(a.Nickname)
}

// Validate проверяет обязательные поля адреса.
func (a *Address) Validate() []error {
	var errs []error
	if a.ZipCode == "" || a.Street == "" || a.Number == "" || a.Neighborhood == "" || a.City == "" {
		errs = append(errs, ErrAddressFieldRequired)
	}
	if !isStateCode(a.State) {
		errs = append(errs, ErrStateInvalid)
	}
	return errs
}

// Snapshot копирует поля адреса для сохранения в заказе.
func (a *Address) Snapshot() *AddressSnapshot {
	return &AddressSnapshot{
		ZipCode:      a.ZipCode,
		Street:       a.Street,
		Number:       a.Number,
		Complement:   a.Complement,
		Neighborhood: a.Neighborhood,
		City:         a.City,
		State:        a.State,
	}
}

// AddressSnapshot — неизменяемая копия адреса внутри заказа.
type AddressSnapshot struct {
	ZipCode      string
	Street       string
	Number       string
	Complement   string
	Neighborhood string
	City         string
	State        string
}

func isStateCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
