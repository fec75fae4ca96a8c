package dto

type LocationInput struct {
	Name         string `json:"name"`
	Address1     string `json:"address1"`
	Address2     string `json:"address2"`
	City         string `json:"city"`
	Province     string `json:"province"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
	Instructions string `json:"instructions"`
	IsActive     bool   `json:"is_active"`
	DisplayOrder int    `json:"display_order"`
}
