package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-storefront/internal/model"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// DownloadsEmail renders the plain-text mail listing one line per issued
// download. ok is false when there is nothing to send.
func DownloadsEmail(p model.OrderPaidPayload) (msg Message, ok bool) {
	if p.Email == "" || len(p.Downloads) == 0 {
		return Message{}, false
	}

	links := make([]string, len(p.Downloads))
	for i, d := range p.Downloads {
		links[i] = fmt.Sprintf("%s: %s", d.ProductName, d.URL)
	}

	return Message{
		To:      p.Email,
		Subject: fmt.Sprintf("Your digital downloads for Order #%s", p.OrderID),
		Body: "Thanks for your purchase!\n\n" +
			"Here are your download links:\n\n" +
			strings.Join(links, "\n"),
	}, true
}
