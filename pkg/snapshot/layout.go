package snapshot

import (
	"fmt"
	"math"
	"strings"
)

// Paper is a page size in millimetres, portrait.
type Paper struct {
	Name   string
	Width  float64
	Height float64
}

var (
	A4     = Paper{Name: "A4", Width: 210, Height: 297}
	Letter = Paper{Name: "Letter", Width: 215.9, Height: 279.4}
)

// ParsePaper resolves a paper name, case-insensitively.
func ParsePaper(name string) (Paper, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "a4":
		return A4, nil
	case "letter":
		return Letter, nil
	default:
		return Paper{}, fmt.Errorf("unknown paper size %q", name)
	}
}

// Orientation of a document page.
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// ParseOrientation accepts "portrait"/"landscape" and their "p"/"l" abbreviations.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "p", "portrait":
		return Portrait, nil
	case "l", "landscape":
		return Landscape, nil
	default:
		return "", fmt.Errorf("unknown orientation %q", s)
	}
}

// DefaultMargin is the page margin in millimetres.
const DefaultMargin = 10.0

// PageSetup is the fixed page geometry of an exported document.
type PageSetup struct {
	Paper       Paper
	Orientation Orientation
	Margin      float64
}

// DefaultPageSetup is A4 portrait with a 10mm margin.
func DefaultPageSetup() PageSetup {
	return PageSetup{Paper: A4, Orientation: Portrait, Margin: DefaultMargin}
}

// PageSize returns the page width and height after applying the orientation.
func (s PageSetup) PageSize() (float64, float64) {
	if s.Orientation == Landscape {
		return s.Paper.Height, s.Paper.Width
	}
	return s.Paper.Width, s.Paper.Height
}

// ContentBox returns the width and height left inside the margins.
func (s PageSetup) ContentBox() (float64, float64) {
	w, h := s.PageSize()
	return w - 2*s.Margin, h - 2*s.Margin
}

// Slice is the band of image rows [Y0, Y1) placed on one page, and its printed height in mm.
type Slice struct {
	Page   int
	Y0, Y1 int
	Height float64
}

// Plan maps a rasterized image onto pages. The slices tile the image rows
// exactly, so nothing is cropped and nothing is printed twice.
type Plan struct {
	Setup         PageSetup
	ImageWidth    int
	ImageHeight   int
	ContentWidth  float64
	ContentHeight float64
	ScaledHeight  float64
	Pages         int
	Slices        []Slice
}

// pageEpsilon keeps float noise from adding an empty trailing page.
const pageEpsilon = 1e-9

// NewPlan fits an image of imgW x imgH pixels to the content width of setup and
// splits it into as many pages as its scaled height needs.
func NewPlan(setup PageSetup, imgW, imgH int) (Plan, error) {
	if imgW <= 0 || imgH <= 0 {
		return Plan{}, fmt.Errorf("%w: empty image %dx%d", ErrInvalidLayout, imgW, imgH)
	}
	if setup.Margin < 0 {
		return Plan{}, fmt.Errorf("%w: negative margin", ErrInvalidLayout)
	}
	contentW, contentH := setup.ContentBox()
	if contentW <= 0 || contentH <= 0 {
		return Plan{}, fmt.Errorf("%w: margin %.1fmm leaves no content area", ErrInvalidLayout, setup.Margin)
	}

	scaledHeight := float64(imgH) * contentW / float64(imgW)
	pages := int(math.Ceil(scaledHeight/contentH - pageEpsilon))
	if pages < 1 {
		pages = 1
	}

	plan := Plan{
		Setup:         setup,
		ImageWidth:    imgW,
		ImageHeight:   imgH,
		ContentWidth:  contentW,
		ContentHeight: contentH,
		ScaledHeight:  scaledHeight,
		Pages:         pages,
		Slices:        make([]Slice, 0, pages),
	}

	pixelsPerPage := contentH * float64(imgW) / contentW
	mmPerPixel := contentW / float64(imgW)

	y0 := 0
	for page := 1; page <= pages; page++ {
		y1 := imgH
		if page < pages {
			y1 = int(math.Floor(float64(page) * pixelsPerPage))
			if y1 > imgH {
				y1 = imgH
			}
		}
		plan.Slices = append(plan.Slices, Slice{
			Page:   page,
			Y0:     y0,
			Y1:     y1,
			Height: float64(y1-y0) * mmPerPixel,
		})
		y0 = y1
	}
	return plan, nil
}
