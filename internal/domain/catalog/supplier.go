package catalog

import "github.com/giftcampaign/backend/internal/domain/shared"

// Supplier provides products purchased through purchase orders
type Supplier struct {
	shared.BaseEntity
	Name         string
	Street       string
	StreetNumber string
	City         string
	Phone        string
	Email        string
}

// StreetLine joins street and street number
func (s *Supplier) StreetLine() string {
	if s.StreetNumber == "" {
		return s.Street
	}
	return s.Street + " " + s.StreetNumber
}
