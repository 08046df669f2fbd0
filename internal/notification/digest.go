package notification

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"cmms-backend/internal/maint"
)

// maxListed caps how many rows of each section go into a message.
const maxListed = 20

// Message is one rendered digest, ready for every channel.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

// pushPayload is what the service worker on the client receives.
type pushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// FormatDigest renders the digest as an email and a short push text.
func FormatDigest(d maint.Digest) Message {
	day := d.Today.Format("2006-01-02")
	msg := Message{
		Subject: fmt.Sprintf("Maintenance digest %s: %d overdue PM, %d open WO, %d low stock",
			day, len(d.OverduePlans), len(d.OpenWorkOrders), len(d.LowStockParts)),
		Text: fmt.Sprintf("%d overdue PM plans, %d open work orders, %d parts below minimum",
			len(d.OverduePlans), len(d.OpenWorkOrders), len(d.LowStockParts)),
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Maintenance digest for %s</h2>", day)

	section(&b, "Overdue PM plans", []string{"Task", "Asset", "Due"}, len(d.OverduePlans), func(i int) []string {
		p := d.OverduePlans[i]
		asset := fmt.Sprintf("#%d", p.AssetID)
		if p.Asset != nil {
			asset = p.Asset.Name
		}
		return []string{p.Task, asset, p.NextDueDate.Format("2006-01-02")}
	})
	section(&b, "Open work orders", []string{"Number", "Title", "Status", "Priority"}, len(d.OpenWorkOrders), func(i int) []string {
		wo := d.OpenWorkOrders[i]
		return []string{wo.WONo, wo.Title, string(wo.Status), string(wo.Priority)}
	})
	section(&b, "Parts below minimum stock", []string{"Code", "Name", "Available", "Minimum"}, len(d.LowStockParts), func(i int) []string {
		p := d.LowStockParts[i]
		return []string{p.KodeBarang, p.NamaBarang, fmt.Sprint(p.AvailableStock), fmt.Sprint(p.MinimumStock)}
	})

	msg.HTML = b.String()
	return msg
}

func section(b *strings.Builder, title string, header []string, n int, row func(int) []string) {
	if n == 0 {
		return
	}
	fmt.Fprintf(b, "<h3>%s (%d)</h3><table border=\"1\" cellpadding=\"4\"><tr>", html.EscapeString(title), n)
	for _, h := range header {
		fmt.Fprintf(b, "<th>%s</th>", html.EscapeString(h))
	}
	b.WriteString("</tr>")
	for i := 0; i < n && i < maxListed; i++ {
		b.WriteString("<tr>")
		for _, cell := range row(i) {
			fmt.Fprintf(b, "<td>%s</td>", html.EscapeString(cell))
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	if n > maxListed {
		fmt.Fprintf(b, "<p>and %d more</p>", n-maxListed)
	}
}

// PushPayload is the JSON body sent to browser subscriptions.
func (m Message) PushPayload() ([]byte, error) {
	return json.Marshal(pushPayload{Title: "Maintenance digest", Body: m.Text, URL: "/dashboard"})
}
