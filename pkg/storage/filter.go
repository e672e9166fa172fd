package storage

import (
	"Prazo-Certo/entities"
	"sort"
	"strings"
	"time"
)

type ProductStatus string

const (
	StatusActive    ProductStatus = "active"
	StatusConsumed  ProductStatus = "consumed"
	StatusDiscarded ProductStatus = "discarded"
	StatusAll       ProductStatus = "all"
)

const (
	SortByExpiration = "expirationDate"
	SortByName       = "name"
	SortByCreatedAt  = "createdAt"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// ProductFilter narrows GetProductsByUserID. The zero value lists the user's
// active products by ascending expiration date.
type ProductFilter struct {
	Status       ProductStatus
	CategoryID   *entities.CategoryID
	ExpiringOnly bool
	ExpiredOnly  bool
	Search       string
	SortBy       string
	SortOrder    string
	Limit        int
	Offset       int
}

func (f ProductFilter) normalized() ProductFilter {
	switch f.Status {
	case StatusActive, StatusConsumed, StatusDiscarded, StatusAll:
	default:
		f.Status = StatusActive
	}
	if f.ExpiringOnly {
		f.Status = StatusActive
	}
	switch f.SortBy {
	case SortByExpiration, SortByName, SortByCreatedAt:
	default:
		f.SortBy = SortByExpiration
	}
	if f.SortOrder != SortDesc {
		f.SortOrder = SortAsc
	}
	f.Search = strings.TrimSpace(f.Search)
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Limit < 0 {
		f.Limit = 0
	}
	return f
}

// matches is the in-memory twin of the WHERE clause the relational adapter
// builds in applyProductFilter. Both must agree.
func (f ProductFilter) matches(p *entities.Product, now time.Time) bool {
	switch f.Status {
	case StatusActive:
		if !p.Active() {
			return false
		}
	case StatusConsumed:
		if !p.Consumed {
			return false
		}
	case StatusDiscarded:
		if !p.Discarded {
			return false
		}
	}
	if f.CategoryID != nil && p.CategoryID != *f.CategoryID {
		return false
	}
	if f.ExpiringOnly && p.ExpirationDate.Before(now) {
		return false
	}
	if f.ExpiredOnly && !p.ExpirationDate.Before(now) {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

func (f ProductFilter) sort(products []*entities.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		var cmp int
		switch f.SortBy {
		case SortByName:
			cmp = strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		case SortByCreatedAt:
			cmp = a.CreatedAt.Compare(b.CreatedAt)
		default:
			cmp = a.ExpirationDate.Compare(b.ExpirationDate)
		}
		if f.SortOrder == SortDesc {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp < 0
		}
		return a.ID < b.ID
	})
}

func (f ProductFilter) page(products []*entities.Product) []*entities.Product {
	if f.Offset >= len(products) {
		return []*entities.Product{}
	}
	products = products[f.Offset:]
	if f.Limit > 0 && f.Limit < len(products) {
		products = products[:f.Limit]
	}
	return products
}
