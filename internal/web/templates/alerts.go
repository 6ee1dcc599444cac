// Package templates renders the HTML fragments served to HTMX clients.
package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/stockkeep/internal/core"
)

// ErrorAlert renders a dismissible error box with the support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<div class="alert alert-error" role="alert"><p class="alert-message">%s</p>`,
			templ.EscapeString(message))
		if err != nil {
			return err
		}
		if action != "" {
			if _, err := fmt.Fprintf(w, `<p class="alert-action">%s</p>`, templ.EscapeString(action)); err != nil {
				return err
			}
		}
		_, err = fmt.Fprintf(w, `<p class="alert-code">Code: %s</p></div>`, templ.EscapeString(code))
		return err
	})
}

// LowStockReport renders the low-stock alert table.
func LowStockReport(items []core.ItemView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(items) == 0 {
			_, err := io.WriteString(w, `<div id="low-stock-report" class="empty">No items are below their low stock threshold.</div>`)
			return err
		}

		if _, err := io.WriteString(w, `<table id="low-stock-report"><thead><tr>`+
			`<th>Name</th><th>Quantity</th><th>Threshold</th><th>Supplier</th>`+
			`</tr></thead><tbody>`); err != nil {
			return err
		}
		for _, it := range items {
			if err := lowStockRow(it).Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tbody></table>`)
		return err
	})
}

func lowStockRow(it core.ItemView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		supplier := "-"
		if it.Supplier != nil {
			supplier = it.Supplier.Name
		}
		_, err := fmt.Fprintf(w,
			`<tr data-item-id="%s"><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
			templ.EscapeString(it.ID),
			templ.EscapeString(it.Name),
			strconv.Itoa(it.Quantity),
			strconv.Itoa(it.LowStockThreshold),
			templ.EscapeString(supplier),
		)
		return err
	})
}
