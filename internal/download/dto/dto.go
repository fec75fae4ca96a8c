package dto

import "github.com/fekuna/omnipos-storefront/internal/model"

// Entitlement is a download joined with what redemption needs to check and
// serve it.
type Entitlement struct {
	model.DigitalDownload
	OrderUserID *string `db:"order_user_id"`
	DigitalFile *string `db:"digital_file"`
	DigitalURL  *string `db:"digital_url"`
}

// Delivery is either a local file to stream or an external URL to redirect to.
type Delivery struct {
	FilePath    string
	FileName    string
	RedirectURL string
}
