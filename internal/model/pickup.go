package model

import "strings"

type PickupLocation struct {
	BaseModel
	Name         string `db:"name" json:"name"`
	Address1     string `db:"address1" json:"address1"`
	Address2     string `db:"address2" json:"address2"`
	City         string `db:"city" json:"city"`
	Province     string `db:"province" json:"province"`
	PostalCode   string `db:"postal_code" json:"postal_code"`
	Country      string `db:"country" json:"country"`
	Phone        string `db:"phone" json:"phone"`
	Instructions string `db:"instructions" json:"instructions"`
	IsActive     bool   `db:"is_active" json:"is_active"`
	DisplayOrder int    `db:"display_order" json:"display_order"`
}

func (l *PickupLocation) FullAddress() string {
	var lines []string
	if l.Address1 != "" {
		lines = append(lines, l.Address1)
	}
	if l.Address2 != "" {
		lines = append(lines, l.Address2)
	}
	cityLine := strings.TrimSpace(strings.Join(nonEmpty(l.City, l.Province, l.PostalCode), " "))
	if cityLine != "" {
		lines = append(lines, cityLine)
	}
	if l.Country != "" {
		lines = append(lines, l.Country)
	}
	return strings.Join(lines, "\n")
}

func nonEmpty(parts ...string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
