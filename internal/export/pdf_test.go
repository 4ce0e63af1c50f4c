package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"jangbu/internal/core"
	"jangbu/internal/ledger"
	"jangbu/internal/log"
)

type mapImages map[string][]byte

func (m mapImages) Read(_ context.Context, url string) ([]byte, error) {
	data, ok := m[url]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testBuilder(images ImageReader) *Builder {
	return NewBuilder(images, "", log.New(log.DefaultConfig()))
}

func expenseView(items []core.Expense) ledger.ExpenseView {
	return ledger.ExpenseView{
		Items:   items,
		Summary: core.NewSummary(len(items), core.SumExpenses(items), 100000),
		Range:   core.DateRange{Start: "2024-01-01", End: "2024-01-31"},
	}
}

func TestExpenseReport(t *testing.T) {
	imgs := mapImages{"/images/a.png": pngBytes(t, 40, 60)}
	b := testBuilder(imgs)

	out, err := b.ExpenseReport(context.Background(), expenseView([]core.Expense{
		{Date: "2024-01-05", Time: "09:00", StoreName: "Store A", Amount: 8000,
			Category: core.CategoryFood, ImageURL: "/images/a.png"},
		{Date: "2024-01-06", StoreName: "Store B", Amount: 4500, Category: core.CategoryOther},
	}), "P")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatal("output is not a pdf")
	}
}

func TestExpenseReportSkipsMissingImages(t *testing.T) {
	b := testBuilder(mapImages{}) // every read fails
	out, err := b.ExpenseReport(context.Background(), expenseView([]core.Expense{
		{Date: "2024-01-05", StoreName: "Store A", Amount: 1, ImageURL: "/images/gone.png"},
	}), "P")
	if err != nil {
		t.Fatalf("missing image must not fail the report: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatal("output is not a pdf")
	}
}

func TestExpenseReportEmpty(t *testing.T) {
	b := testBuilder(nil)
	out, err := b.ExpenseReport(context.Background(), expenseView(nil), "L")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) == 0 {
		t.Fatal("empty report should still render the summary page")
	}
}

func TestExpenseReportManyImagesPaginate(t *testing.T) {
	imgs := mapImages{}
	var items []core.Expense
	for i := 0; i < 5; i++ {
		url := "/images/r" + string(rune('a'+i)) + ".png"
		imgs[url] = pngBytes(t, 30, 30)
		items = append(items, core.Expense{
			Date: "2024-01-05", StoreName: "Store", Amount: 1000, ImageURL: url,
		})
	}
	b := testBuilder(imgs)
	out, err := b.ExpenseReport(context.Background(), expenseView(items), "P")
	if err != nil {
		t.Fatal(err)
	}
	// 5 images at 4 per page: summary + 2 grid pages.
	pages := bytes.Count(out, []byte("/Type /Page")) - bytes.Count(out, []byte("/Type /Pages"))
	if pages < 3 {
		t.Fatalf("expected at least 3 pages, counted %d", pages)
	}
}

func TestIncomeReport(t *testing.T) {
	b := testBuilder(nil)
	out, err := b.IncomeReport(context.Background(), ledger.IncomeView{
		Items: []core.Income{
			{Date: "2024-03-01", Category: core.IncomeCategoryDues, Amount: 50000,
				Method: core.IncomeMethodBankTransfer},
		},
		Total: 50000,
		Range: core.DateRange{},
	}, "P")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatal("output is not a pdf")
	}
}

func TestFitRect(t *testing.T) {
	cases := []struct {
		w, h, maxW, maxH float64
		wantW, wantH     float64
	}{
		{100, 50, 50, 50, 50, 25},  // wide image, width-bound
		{50, 100, 50, 50, 25, 50},  // tall image, height-bound
		{10, 10, 50, 50, 50, 50},   // scales up
		{0, 0, 40, 30, 40, 30},     // degenerate falls back to the cell
	}
	for i, tc := range cases {
		w, h := fitRect(tc.w, tc.h, tc.maxW, tc.maxH)
		if w != tc.wantW || h != tc.wantH {
			t.Errorf("case %d: fitRect = (%v, %v), want (%v, %v)", i, w, h, tc.wantW, tc.wantH)
		}
	}
}
