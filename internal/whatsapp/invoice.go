// Package whatsapp composes the invoice messages collectors send to clients.
// It only builds text and wa.me links from numbers the accounting engine
// already produced; changing the message format never touches the engine.
package whatsapp

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Invoice is the subset of loan figures quoted in a client message.
type Invoice struct {
	LoanID       uint
	Amount       float64
	Rate         float64
	TotalPayable float64
	Installment  float64
	EndDate      time.Time
}

// InvoiceText renders the human-readable invoice body. The money formatter is
// injected so presentation (currency, separators) stays out of this package.
func InvoiceText(inv Invoice, money func(float64) string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Factura préstamo #%d\n", inv.LoanID)
	fmt.Fprintf(&b, "Monto: %s\n", money(inv.Amount))
	fmt.Fprintf(&b, "Interés: %g%%\n", inv.Rate)
	fmt.Fprintf(&b, "Total a pagar: %s\n", money(inv.TotalPayable))
	fmt.Fprintf(&b, "Cuota: %s\n", money(inv.Installment))
	fmt.Fprintf(&b, "Fecha final: %s", inv.EndDate.Format("2006-01-02"))
	return b.String()
}

// InvoiceURL builds the wa.me link for the client's phone, or "" when the
// client has no usable phone number.
func InvoiceURL(phone string, inv Invoice, money func(float64) string) string {
	p := strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
	if p == "" {
		return ""
	}
	return "https://wa.me/" + p + "?text=" + url.QueryEscape(InvoiceText(inv, money))
}
