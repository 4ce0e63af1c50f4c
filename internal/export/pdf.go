// Package export renders ledger views into PDF reports: a summary page with
// the budget numbers and the record table, followed by receipt image pages.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/sync/errgroup"

	"jangbu/internal/core"
	"jangbu/internal/ledger"
	"jangbu/internal/log"
)

// ImageReader resolves a stored image URL to its bytes.
type ImageReader interface {
	Read(ctx context.Context, imageURL string) ([]byte, error)
}

const (
	pageMargin   = 10.0
	gridCols     = 2
	gridRows     = 2
	labelMaxLen  = 35
	fetchWorkers = 4
)

// Builder renders PDF reports. A custom UTF-8 font file is required for
// Korean text; without one the built-in Helvetica is used and non-latin
// glyphs degrade.
type Builder struct {
	images   ImageReader
	fontPath string
	logger   *log.Logger
}

func NewBuilder(images ImageReader, fontPath string, logger *log.Logger) *Builder {
	return &Builder{
		images:   images,
		fontPath: fontPath,
		logger:   logger.WithComponent(log.ComponentExport),
	}
}

// ExpenseReport renders the expense view. Orientation is "P" or "L".
func (b *Builder) ExpenseReport(ctx context.Context, view ledger.ExpenseView, orientation string) ([]byte, error) {
	pdf, font := b.newDoc(orientation)

	pdf.AddPage()
	b.writeTitle(pdf, font, "지출 내역 보고서", view.Range)
	b.writeSummaryBoxes(pdf, font, view.Summary)
	b.writeExpenseTable(pdf, font, view.Items)
	b.writeFooter(pdf, font)

	if err := b.writeReceiptPages(ctx, pdf, font, view.Items); err != nil {
		return nil, err
	}

	return b.output(pdf)
}

// IncomeReport renders the income view. Income records carry no images, so
// the report is the summary and table only.
func (b *Builder) IncomeReport(_ context.Context, view ledger.IncomeView, orientation string) ([]byte, error) {
	pdf, font := b.newDoc(orientation)

	pdf.AddPage()
	b.writeTitle(pdf, font, "수입 내역 보고서", view.Range)

	pdf.SetFont(font, "", 11)
	pdf.CellFormat(0, 8, "총 수입: "+core.FormatAmount(view.Total), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	b.writeIncomeTable(pdf, font, view.Items)
	b.writeFooter(pdf, font)
	return b.output(pdf)
}

func (b *Builder) newDoc(orientation string) (*gofpdf.Fpdf, string) {
	if orientation != "L" {
		orientation = "P"
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)

	font := "Helvetica"
	if b.fontPath != "" {
		pdf.AddUTF8Font("custom", "", b.fontPath)
		if pdf.Err() {
			b.logger.Warn("custom font failed to load, falling back to Helvetica",
				"font_path", b.fontPath)
			pdf.ClearError()
		} else {
			font = "custom"
		}
	}
	return pdf, font
}

func (b *Builder) writeTitle(pdf *gofpdf.Fpdf, font, title string, r core.DateRange) {
	pdf.SetFont(font, "", 18)
	pdf.CellFormat(0, 12, title, "", 1, "C", false, 0, "")
	pdf.SetFont(font, "", 10)
	pdf.CellFormat(0, 7, r.Label(), "", 1, "C", false, 0, "")
	pdf.Ln(4)
}

func (b *Builder) writeSummaryBoxes(pdf *gofpdf.Fpdf, font string, s core.Summary) {
	pageW, _ := pdf.GetPageSize()
	boxW := (pageW - 2*pageMargin - 10) / 3

	boxes := []struct{ label, value string }{
		{"예산", core.FormatAmount(s.Budget)},
		{"지출", core.FormatAmount(s.TotalSpent)},
		{"잔액", core.FormatAmount(s.Remaining)},
	}
	x := pageMargin
	y := pdf.GetY()
	for _, box := range boxes {
		pdf.SetXY(x, y)
		pdf.SetFont(font, "", 9)
		pdf.CellFormat(boxW, 6, box.label, "LTR", 2, "C", false, 0, "")
		pdf.SetFont(font, "", 12)
		pdf.SetX(x)
		pdf.CellFormat(boxW, 9, box.value, "LBR", 0, "C", false, 0, "")
		x += boxW + 5
	}
	pdf.SetY(y + 19)
}

func (b *Builder) writeExpenseTable(pdf *gofpdf.Fpdf, font string, items []core.Expense) {
	headers := []string{"날짜", "시간", "가게", "금액", "분류", "사유"}
	widths := []float64{24, 14, 52, 28, 18, 54}
	b.writeTableHeader(pdf, font, headers, widths)

	pdf.SetFont(font, "", 9)
	pdf.SetFillColor(248, 248, 248)
	for row, e := range items {
		cells := []string{
			core.FormatDateDots(e.Date),
			e.Time,
			core.Truncate(e.StoreName, 18),
			core.FormatAmount(e.Amount),
			string(e.Category),
			core.Truncate(e.Reason, 20),
		}
		zebra := row%2 == 1
		for i, c := range cells {
			align := "L"
			if i == 3 {
				align = "R"
			}
			if i == 4 {
				setTextColorHex(pdf, e.Category.Color())
			}
			pdf.CellFormat(widths[i], 7, c, "1", 0, align, zebra, 0, "")
			if i == 4 {
				pdf.SetTextColor(0, 0, 0)
			}
		}
		pdf.Ln(-1)
	}
}

// setTextColorHex applies a #RRGGBB category color.
func setTextColorHex(pdf *gofpdf.Fpdf, hex string) {
	if len(hex) != 7 || hex[0] != '#' {
		return
	}
	var r, g, bl int
	if _, err := fmt.Sscanf(hex[1:], "%02x%02x%02x", &r, &g, &bl); err != nil {
		return
	}
	pdf.SetTextColor(r, g, bl)
}

func (b *Builder) writeIncomeTable(pdf *gofpdf.Fpdf, font string, items []core.Income) {
	headers := []string{"날짜", "분류", "출처", "금액", "방법", "비고"}
	widths := []float64{24, 26, 48, 28, 22, 42}
	b.writeTableHeader(pdf, font, headers, widths)

	pdf.SetFont(font, "", 9)
	pdf.SetFillColor(248, 248, 248)
	for row, in := range items {
		cells := []string{
			core.FormatDateDots(in.Date),
			in.Category,
			core.Truncate(in.Source, 16),
			core.FormatAmount(in.Amount),
			in.Method,
			core.Truncate(in.Note, 14),
		}
		for i, c := range cells {
			align := "L"
			if i == 3 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 7, c, "1", 0, align, row%2 == 1, 0, "")
		}
		pdf.Ln(-1)
	}
}

func (b *Builder) writeTableHeader(pdf *gofpdf.Fpdf, font string, headers []string, widths []float64) {
	pdf.SetFont(font, "", 9)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}

func (b *Builder) writeFooter(pdf *gofpdf.Fpdf, font string) {
	pdf.Ln(4)
	pdf.SetFont(font, "", 8)
	pdf.SetTextColor(128, 128, 128)
	pdf.CellFormat(0, 5, "생성일: "+time.Now().Format("2006.01.02 15:04"), "", 1, "R", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

type fetchedImage struct {
	expense core.Expense
	data    []byte
	kind    string // gofpdf image type
	w, h    int
}

// writeReceiptPages lays receipt images out in a fixed grid, four to a page.
// Records without images and images that fail to load or decode are skipped.
func (b *Builder) writeReceiptPages(ctx context.Context, pdf *gofpdf.Fpdf, font string, items []core.Expense) error {
	fetched, err := b.fetchImages(ctx, items)
	if err != nil {
		return err
	}
	if len(fetched) == 0 {
		return nil
	}

	pageW, pageH := pdf.GetPageSize()
	cellW := (pageW - 2*pageMargin) / gridCols
	cellH := (pageH - 2*pageMargin - 10) / gridRows
	labelH := 6.0

	// The grid is positioned manually; the auto page break would fire on the
	// bottom-row labels otherwise.
	pdf.SetAutoPageBreak(false, pageMargin)
	defer pdf.SetAutoPageBreak(true, pageMargin)

	gridTop := 0.0
	for i, img := range fetched {
		slot := i % (gridCols * gridRows)
		if slot == 0 {
			pdf.AddPage()
			pdf.SetFont(font, "", 12)
			pdf.CellFormat(0, 8, "영수증 이미지", "", 1, "L", false, 0, "")
			gridTop = pdf.GetY() + 2
		}
		col := slot % gridCols
		row := slot / gridCols
		x := pageMargin + float64(col)*cellW
		y := gridTop + float64(row)*cellH

		name := fmt.Sprintf("receipt-%d", i)
		opts := gofpdf.ImageOptions{ImageType: img.kind, ReadDpi: false}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.data))
		if pdf.Err() {
			b.logger.Warn("image registration failed, skipping cell",
				log.FieldImageURL, img.expense.ImageURL)
			pdf.ClearError()
			continue
		}

		// Aspect-fit inside the cell, centered, label underneath.
		availW := cellW - 4
		availH := cellH - labelH - 4
		drawW, drawH := fitRect(float64(img.w), float64(img.h), availW, availH)
		imgX := x + (cellW-drawW)/2
		imgY := y + (availH-drawH)/2
		pdf.ImageOptions(name, imgX, imgY, drawW, drawH, false, opts, 0, "")

		labelParts := core.FormatDateDots(img.expense.Date)
		if img.expense.Time != "" {
			labelParts += " " + img.expense.Time
		}
		label := core.Truncate(labelParts+" - "+img.expense.StoreName, labelMaxLen)
		pdf.SetFont(font, "", 8)
		pdf.SetXY(x, y+availH+2)
		pdf.CellFormat(cellW, labelH, label, "", 0, "C", false, 0, "")
	}
	return nil
}

// fetchImages loads receipt images concurrently, keeping record order.
// Individual failures drop the cell instead of failing the report.
func (b *Builder) fetchImages(ctx context.Context, items []core.Expense) ([]fetchedImage, error) {
	withImages := make([]core.Expense, 0, len(items))
	for _, e := range items {
		if e.ImageURL != "" {
			withImages = append(withImages, e)
		}
	}
	if len(withImages) == 0 || b.images == nil {
		return nil, nil
	}

	results := make([]*fetchedImage, len(withImages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchWorkers)
	for i, e := range withImages {
		g.Go(func() error {
			data, err := b.images.Read(gctx, e.ImageURL)
			if err != nil {
				b.logger.Warn("receipt image unavailable, skipping",
					log.FieldImageURL, e.ImageURL, log.FieldError, err)
				return nil
			}
			cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
			if err != nil {
				b.logger.Warn("receipt image undecodable, skipping",
					log.FieldImageURL, e.ImageURL, log.FieldError, err)
				return nil
			}
			var kind string
			switch format {
			case "jpeg":
				kind = "JPG"
			case "png":
				kind = "PNG"
			default:
				b.logger.Warn("unsupported image format for pdf, skipping",
					log.FieldImageURL, e.ImageURL, "format", format)
				return nil
			}
			results[i] = &fetchedImage{expense: e, data: data, kind: kind, w: cfg.Width, h: cfg.Height}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch receipt images: %w", err)
	}

	out := make([]fetchedImage, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

// fitRect scales (w, h) to fit inside (maxW, maxH) preserving aspect ratio.
func fitRect(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return maxW, maxH
	}
	scale := maxW / w
	if s := maxH / h; s < scale {
		scale = s
	}
	return w * scale, h * scale
}

// output renders into memory so a failed build never produces bytes.
func (b *Builder) output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
