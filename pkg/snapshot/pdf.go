package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/jung-kurt/gofpdf"
)

// PDFContentType is the media type of assembled documents.
const PDFContentType = "application/pdf"

// PDFBackend rasterizes with the default Rasterizer and lays the image out
// over gofpdf pages, one image slice per page.
type PDFBackend struct {
	*Rasterizer
	Title   string
	Creator string
}

// NewPDFBackend creates a gofpdf document backend.
func NewPDFBackend(title, creator string) *PDFBackend {
	if creator == "" {
		creator = "go-campus"
	}
	return &PDFBackend{Rasterizer: NewRasterizer(), Title: title, Creator: creator}
}

func (b *PDFBackend) ContentType() string { return PDFContentType }

func (b *PDFBackend) Extension() string { return ".pdf" }

// Assemble writes one page per plan slice. Each slice is placed at the top-left
// corner of the content box, scaled to the content width.
func (b *PDFBackend) Assemble(ctx context.Context, img image.Image, plan Plan) ([]byte, error) {
	orientation := "P"
	if plan.Setup.Orientation == Landscape {
		orientation = "L"
	}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: plan.Setup.Paper.Width, Ht: plan.Setup.Paper.Height},
	})
	margin := plan.Setup.Margin
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	if b.Title != "" {
		pdf.SetTitle(b.Title, true)
	}
	pdf.SetCreator(b.Creator, true)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	for _, slice := range plan.Slices {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := EncodePNG(crop(img, slice.Y0, slice.Y1))
		if err != nil {
			return nil, fmt.Errorf("encode page %d: %w", slice.Page, err)
		}
		name := fmt.Sprintf("page-%d", slice.Page)
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
		pdf.AddPage()
		pdf.ImageOptions(name, margin, margin, plan.ContentWidth, slice.Height, false, opts, 0, "")
	}
	if pdf.Err() {
		return nil, fmt.Errorf("assemble pdf: %w", pdf.Error())
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return out.Bytes(), nil
}
