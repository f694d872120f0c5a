package orders

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"time"

	"boutique/apperr"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

func invoiceSecret() []byte {
	if s := os.Getenv("INVOICE_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("boutique-invoice-secret")
}

// InvoiceQRPayload returns orderid|status|timestamp|signature so a
// scanned invoice can be verified against the live order.
func InvoiceQRPayload(orderID, status string) string {
	data := fmt.Sprintf("%s|%s|%d", orderID, status, time.Now().Unix())
	h := hmac.New(sha256.New, invoiceSecret())
	h.Write([]byte(data))
	sig := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return fmt.Sprintf("%s|%s", data, sig)
}

// VerifyInvoicePayload checks the signature on a scanned QR payload.
func VerifyInvoicePayload(payload string) bool {
	i := lastPipe(payload)
	if i < 0 {
		return false
	}
	data, sig := payload[:i], payload[i+1:]
	h := hmac.New(sha256.New, invoiceSecret())
	h.Write([]byte(data))
	want := base64.StdEncoding.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(want), []byte(sig))
}

func lastPipe(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '|' {
			return i
		}
	}
	return -1
}

// GET /api/orders/invoice/:id
func (h *Handler) PrintInvoice(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	order, err := h.L.Orders.GetByID(ctx, ps.ByName("id"))
	if err != nil {
		apperr.Write(w, err)
		return
	}

	callerID, role := caller(r)
	if !canTouchOrder(order, callerID, role) {
		apperr.Write(w, apperr.Forbidden("Access denied"))
		return
	}

	detail := h.L.populate(ctx, order)

	qrPNG, err := qrcode.Encode(InvoiceQRPayload(order.OrderID, order.Status), qrcode.Medium, 256)
	if err != nil {
		apperr.Write(w, apperr.Internal("Failed to generate QR code"))
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Order Invoice")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Order ID: %s", order.OrderID))
	pdf.Ln(8)
	if detail.User != nil {
		pdf.Cell(0, 10, fmt.Sprintf("Customer: %s (%s)", detail.User.Name, detail.User.Email))
		pdf.Ln(8)
	}
	pdf.Cell(0, 10, fmt.Sprintf("Status: %s", order.Status))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Placed: %s", order.CreatedAt.Format("2006-01-02 15:04")))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(90, 8, "Product")
	pdf.Cell(30, 8, "Qty")
	pdf.Cell(40, 8, "Price")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 12)
	for _, item := range detail.Items {
		pdf.Cell(90, 8, item.ProductID)
		pdf.Cell(30, 8, fmt.Sprintf("%d", item.Quantity))
		pdf.Cell(40, 8, fmt.Sprintf("%.2f", item.Price))
		pdf.Ln(8)
	}
	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 10, fmt.Sprintf("Total: %.2f", order.TotalAmount))
	pdf.Ln(8)
	if detail.Payment != nil {
		pdf.SetFont("Arial", "", 12)
		pdf.Cell(0, 10, fmt.Sprintf("Payment: %s (%s)", detail.Payment.Status, detail.Payment.Provider))
		pdf.Ln(8)
	}

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 40, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		apperr.Write(w, apperr.Internal("Failed to generate PDF"))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=invoice-"+order.OrderID+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
