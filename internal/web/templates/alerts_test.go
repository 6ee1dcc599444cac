package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/JonMunkholm/stockkeep/internal/core"
)

func TestErrorAlert(t *testing.T) {
	var buf bytes.Buffer
	if err := ErrorAlert("Item <not> found", "Check the ID", "INV001").Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "Item &lt;not&gt; found") {
		t.Errorf("message not escaped: %s", out)
	}
	if !strings.Contains(out, "Check the ID") || !strings.Contains(out, "INV001") {
		t.Errorf("missing action or code: %s", out)
	}

	buf.Reset()
	_ = ErrorAlert("boom", "", "ERR000").Render(context.Background(), &buf)
	if strings.Contains(buf.String(), "alert-action") {
		t.Error("empty action should not be rendered")
	}
}

func TestLowStockReport(t *testing.T) {
	tests := []struct {
		name  string
		items []core.ItemView
		want  []string
	}{
		{"empty", nil, []string{"No items are below"}},
		{
			"rows",
			[]core.ItemView{
				{Item: core.Item{ID: "a", Name: "Bolt & Nut", Quantity: 2, LowStockThreshold: 5},
					Supplier: &core.Supplier{Name: "Acme"}},
				{Item: core.Item{ID: "b", Name: "Gear", Quantity: 0, LowStockThreshold: 1}},
			},
			[]string{"Bolt &amp; Nut", "<td>2</td><td>5</td>", "Acme", `data-item-id="b"`, "<td>-</td>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := LowStockReport(tt.items).Render(context.Background(), &buf); err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output missing %q: %s", w, buf.String())
				}
			}
		})
	}
}
