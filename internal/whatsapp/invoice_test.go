package whatsapp

import (
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"
)

func plainMoney(v float64) string { return fmt.Sprintf("RD$%.2f", v) }

func sampleInvoice() Invoice {
	return Invoice{
		LoanID:       7,
		Amount:       10000,
		Rate:         10,
		TotalPayable: 20000,
		Installment:  2000,
		EndDate:      time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestInvoiceText(t *testing.T) {
	text := InvoiceText(sampleInvoice(), plainMoney)
	for _, want := range []string{
		"Factura préstamo #7",
		"Monto: RD$10000.00",
		"Interés: 10%",
		"Total a pagar: RD$20000.00",
		"Cuota: RD$2000.00",
		"Fecha final: 2024-06-15",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("message missing %q:\n%s", want, text)
		}
	}
}

func TestInvoiceURL(t *testing.T) {
	u := InvoiceURL(" 312 856 5688 ", sampleInvoice(), plainMoney)
	if !strings.HasPrefix(u, "https://wa.me/3128565688?text=") {
		t.Fatalf("unexpected url prefix: %s", u)
	}
	parsed, err := url.Parse(u)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if text := parsed.Query().Get("text"); !strings.Contains(text, "Factura préstamo #7") {
		t.Fatalf("decoded text missing header: %s", text)
	}
}

func TestInvoiceURLEmptyPhone(t *testing.T) {
	if u := InvoiceURL("   ", sampleInvoice(), plainMoney); u != "" {
		t.Fatalf("expected empty url for blank phone, got %s", u)
	}
}
