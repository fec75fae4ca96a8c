package notification

import (
	"testing"

	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestDownloadsEmail(t *testing.T) {
	p := model.OrderPaidPayload{
		OrderID: "0b7c",
		Email:   "reader@example.com",
		Downloads: []model.DownloadLink{
			{ProductName: "Field Guide", URL: "https://shop.test/downloads/a"},
			{ProductName: "Field Guide", URL: "https://shop.test/downloads/b"},
		},
	}

	msg, ok := DownloadsEmail(p)
	assert.True(t, ok)
	assert.Equal(t, "reader@example.com", msg.To)
	assert.Equal(t, "Your digital downloads for Order #0b7c", msg.Subject)
	assert.Equal(t, "Thanks for your purchase!\n\nHere are your download links:\n\n"+
		"Field Guide: https://shop.test/downloads/a\n"+
		"Field Guide: https://shop.test/downloads/b", msg.Body)
}

func TestDownloadsEmail_NothingToSend(t *testing.T) {
	_, ok := DownloadsEmail(model.OrderPaidPayload{Email: "reader@example.com"})
	assert.False(t, ok)

	_, ok = DownloadsEmail(model.OrderPaidPayload{Downloads: []model.DownloadLink{{URL: "x"}}})
	assert.False(t, ok)
}
