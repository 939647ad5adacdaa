// Package render provides snapshot regions: visual subtrees that can be
// drawn at any scale and detached when the view that owns them goes away.
package render

import (
	"errors"
	"image"
	"image/color"
	"sync/atomic"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/adfharrison1/go-campus/pkg/domain"
	"github.com/adfharrison1/go-campus/pkg/table"
)

// ErrDetached is returned by Draw once a region has been detached.
var ErrDetached = errors.New("region is detached")

const (
	margin      = 16
	cellPadding = 6
	rowHeight   = 22
	titleHeight = 30
	maxCellRune = 40
)

var (
	ink       = color.Black
	ruleColor = color.RGBA{R: 0xd0, G: 0xd4, B: 0xda, A: 0xff}
	headerBg  = color.RGBA{R: 0xee, G: 0xf1, B: 0xf5, A: 0xff}
	mutedInk  = color.RGBA{R: 0x55, G: 0x5b, B: 0x66, A: 0xff}
)

// TableRegion is a rendered table: title, header row, body rows and the
// pagination caption.
type TableRegion struct {
	Title   string
	Columns []string
	Cells   [][]string
	Caption string

	// Interpolator upscales the 1x rendering; nil means nearest neighbour,
	// which keeps the bitmap font crisp at integer scales.
	Interpolator draw.Interpolator

	detached atomic.Bool
	widths   []int
}

// NewTableRegion renders rows under the given columns. An empty column list
// takes the columns from the first row.
func NewTableRegion[R domain.Row](title string, columns []string, rows []R, caption string) *TableRegion {
	if len(columns) == 0 && len(rows) > 0 {
		columns = rows[0].Fields()
	}
	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = make([]string, len(columns))
		for j, name := range columns {
			if v, ok := row.Field(name); ok {
				cells[i][j], _ = table.FormatValue(v)
			}
		}
	}
	t := &TableRegion{
		Title:   title,
		Columns: append([]string(nil), columns...),
		Cells:   cells,
		Caption: caption,
	}
	t.layout()
	return t
}

// FromWindow renders one page window with its caption.
func FromWindow[R domain.Row](title string, columns []string, w domain.PageWindow[R]) *TableRegion {
	return NewTableRegion(title, columns, w.Items, w.Caption())
}

// Detach marks the region as unmounted. Later exports are skipped.
func (t *TableRegion) Detach() {
	t.detached.Store(true)
}

// IsAttached is safe to call on a nil region.
func (t *TableRegion) IsAttached() bool {
	return t != nil && !t.detached.Load()
}

func (t *TableRegion) layout() {
	t.widths = make([]int, len(t.Columns))
	for j, name := range t.Columns {
		w := len([]rune(truncate(name)))
		for _, row := range t.Cells {
			if n := len([]rune(truncate(row[j]))); n > w {
				w = n
			}
		}
		t.widths[j] = w*basicfont.Face7x13.Advance + 2*cellPadding
	}
}

// Bounds is the size of the table at scale 1.
func (t *TableRegion) Bounds() image.Rectangle {
	if t.widths == nil {
		t.layout()
	}
	width := 2 * margin
	for _, w := range t.widths {
		width += w
	}
	if minWidth := 2*margin + len([]rune(t.Title))*basicfont.Face7x13.Advance; width < minWidth {
		width = minWidth
	}
	if minWidth := 2*margin + len([]rune(t.Caption))*basicfont.Face7x13.Advance; width < minWidth {
		width = minWidth
	}
	height := 2*margin + titleHeight + rowHeight*(len(t.Cells)+1) + rowHeight
	return image.Rect(0, 0, width, height)
}

// Draw renders the table at scale 1 and scales it into dst.
func (t *TableRegion) Draw(dst draw.Image, scale float64) error {
	if !t.IsAttached() {
		return ErrDetached
	}
	bounds := t.Bounds()
	base := image.NewRGBA(bounds)
	draw.Draw(base, bounds, image.White, image.Point{}, draw.Src)

	y := margin
	drawText(base, mutedInk, margin, y+titleHeight-10, t.Title)
	y += titleHeight

	fill(base, image.Rect(margin, y, bounds.Max.X-margin, y+rowHeight), headerBg)
	t.drawRow(base, y, t.Columns)
	y += rowHeight
	for _, row := range t.Cells {
		fill(base, image.Rect(margin, y, bounds.Max.X-margin, y+1), ruleColor)
		t.drawRow(base, y, row)
		y += rowHeight
	}
	fill(base, image.Rect(margin, y, bounds.Max.X-margin, y+1), ruleColor)

	drawText(base, mutedInk, margin, y+rowHeight-6, t.Caption)

	scaleInto(dst, base, t.Interpolator, draw.NearestNeighbor)
	return nil
}

func (t *TableRegion) drawRow(dst *image.RGBA, y int, cells []string) {
	x := margin
	for j, cell := range cells {
		if j >= len(t.widths) {
			break
		}
		drawText(dst, ink, x+cellPadding, y+rowHeight-7, truncate(cell))
		x += t.widths[j]
	}
}

func drawText(dst *image.RGBA, c color.Color, x, baseline int, s string) {
	if s == "" {
		return
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(s)
}

func fill(dst *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxCellRune {
		return s
	}
	return string(r[:maxCellRune-3]) + "..."
}

// scaleInto stretches src over the whole of dst.
func scaleInto(dst draw.Image, src image.Image, interp, fallback draw.Interpolator) {
	if interp == nil {
		interp = fallback
	}
	interp.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
}
