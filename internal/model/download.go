package model

import "time"

// DigitalDownload entitles the holder of Token to fetch one digital product.
// MaxDownloads of 0 means unlimited.
type DigitalDownload struct {
	ID            string    `db:"id" json:"id"`
	OrderID       string    `db:"order_id" json:"order_id"`
	ProductID     string    `db:"product_id" json:"product_id"`
	ProductName   string    `db:"product_name" json:"product_name"`
	Token         string    `db:"token" json:"-"`
	ExpiresAt     time.Time `db:"expires_at" json:"expires_at"`
	MaxDownloads  int       `db:"max_downloads" json:"max_downloads"`
	DownloadCount int       `db:"download_count" json:"download_count"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`

	// Link is the signed URL handed to the shopper, never stored.
	Link string `db:"-" json:"link,omitempty"`
}

func (d *DigitalDownload) IsExpired(now time.Time) bool {
	return !now.Before(d.ExpiresAt)
}

func (d *DigitalDownload) LimitReached() bool {
	return d.MaxDownloads > 0 && d.DownloadCount >= d.MaxDownloads
}

func (d *DigitalDownload) Remaining() int {
	if d.MaxDownloads == 0 {
		return -1
	}
	if r := d.MaxDownloads - d.DownloadCount; r > 0 {
		return r
	}
	return 0
}
