package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/joshua-takyi/tourly/internal/helpers"
	"github.com/joshua-takyi/tourly/internal/models"
	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// ReceiptService renders booking receipts as single-page PDFs.
type ReceiptService struct {
	bookings *BookingService
	baseURL  string
}

func NewReceiptService(bookings *BookingService, baseURL string) *ReceiptService {
	return &ReceiptService{bookings: bookings, baseURL: strings.TrimRight(baseURL, "/")}
}

// Receipt returns the PDF for a confirmed booking the caller may see.
func (rs *ReceiptService) Receipt(ctx context.Context, id helpers.Identity, bookingID string) (*models.Booking, []byte, error) {
	booking, err := rs.bookings.GetBooking(ctx, id, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if booking.Status != models.BookingConfirmed {
		return nil, nil, fmt.Errorf("%w: receipts are only issued for confirmed bookings", ErrInvalidInput)
	}
	pdf, err := rs.render(booking)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to render receipt: %w", err)
	}
	return booking, pdf, nil
}

func (rs *ReceiptService) verifyURL(b *models.Booking) string {
	return fmt.Sprintf("%s/api/v1/getBookingById/%s", rs.baseURL, b.ID.Hex())
}

func (rs *ReceiptService) render(b *models.Booking) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 22)
	pdf.Cell(0, 15, "TOURLY BOOKING RECEIPT")
	pdf.Ln(20)

	pdf.SetDrawColor(220, 220, 220)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(8)

	yStart := pdf.GetY()
	pdf.SetFillColor(245, 245, 245)
	pdf.Rect(15, yStart, 120, 55, "F")

	pdf.SetXY(20, yStart+7)
	drawReceiptLine(pdf, "B", 14, "BOOKING SUMMARY")
	pdf.Ln(4)
	drawReceiptLine(pdf, "", 12, "Booking ID: "+b.ID.Hex())
	drawReceiptLine(pdf, "", 12, "Tour: "+b.TourTitle)
	drawReceiptLine(pdf, "", 12, "Date: "+b.TourDate)
	drawReceiptLine(pdf, "", 12, fmt.Sprintf("Price: %.2f", b.Pricing))
	drawReceiptLine(pdf, "", 12, "Status: "+strings.ToUpper(string(b.Status)))

	qr, err := qrcode.Encode(rs.verifyURL(b), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	opts := gofpdf.ImageOptions{ImageType: "png"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qr))
	pdf.ImageOptions("qr", 145, yStart+5, 45, 0, false, opts, 0, "")

	pdf.SetY(yStart + 63)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.Cell(0, 6, "Show this QR code to your guide on the day of the tour.")

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(15, 285, 195, 285)
	pdf.SetY(288)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(0, 8, "Booked on "+b.BookingDate.Format("2006-01-02 15:04 MST"), "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawReceiptLine(pdf *gofpdf.Fpdf, style string, size float64, text string) {
	pdf.SetFont("Helvetica", style, size)
	pdf.Cell(0, 8, text)
	pdf.Ln(6)
}
