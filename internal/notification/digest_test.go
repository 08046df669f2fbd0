package notification

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmms-backend/internal/maint"
	"cmms-backend/internal/model"
)

func TestFormatDigest(t *testing.T) {
	d := sampleDigest()
	d.OverduePlans[0].Asset = &model.Asset{Name: "Pump <A>"}
	d.LowStockParts = []model.SparePart{{KodeBarang: "BRG-1", NamaBarang: "Seal", AvailableStock: 1, MinimumStock: 3}}

	msg := FormatDigest(d)
	assert.Equal(t, "Maintenance digest 2025-03-01: 1 overdue PM, 1 open WO, 1 low stock", msg.Subject)
	assert.Contains(t, msg.HTML, "Pump &lt;A&gt;")
	assert.Contains(t, msg.HTML, "WO-20250301-001")
	assert.Contains(t, msg.HTML, "<td>BRG-1</td><td>Seal</td><td>1</td><td>3</td>")

	payload, err := msg.PushPayload()
	require.NoError(t, err)
	var decoded map[string]string
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "Maintenance digest", decoded["title"])
	assert.Equal(t, msg.Text, decoded["body"])
}

func TestFormatDigest_CapsLongSections(t *testing.T) {
	d := maint.Digest{Today: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
	for i := 0; i < maxListed+5; i++ {
		d.LowStockParts = append(d.LowStockParts, model.SparePart{KodeBarang: fmt.Sprintf("P-%02d", i)})
	}

	msg := FormatDigest(d)
	assert.Equal(t, maxListed+1, strings.Count(msg.HTML, "<tr>"))
	assert.Contains(t, msg.HTML, "and 5 more")
	assert.NotContains(t, msg.HTML, "Overdue PM plans")
}
