package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/image/draw"
)

// DefaultDPI matches the resolution scanned documents are usually produced
// at; OCR accuracy degrades noticeably below it.
const DefaultDPI = 150

// maxPixelSide caps rasterized page dimensions. Poster-sized pages at full
// DPI produce bitmaps the OCR engine chokes on.
const maxPixelSide = 4096

// PageImage is one rasterized PDF page.
type PageImage struct {
	Index  int
	Width  int
	Height int
	Image  image.Image
}

// PNG encodes the page bitmap for OCR or model submission.
func (p PageImage) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, p.Image); err != nil {
		return nil, fmt.Errorf("encode page %d: %w", p.Index, err)
	}
	return buf.Bytes(), nil
}

// Rasterize renders every page of the source to a bitmap at the given DPI,
// in physical page order. The source is re-read from the beginning. Oversized
// pages are downscaled to fit maxPixelSide.
func Rasterize(src *Source, dpi float64) ([]PageImage, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	data, err := src.Bytes()
	if err != nil {
		return nil, err
	}
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf for rasterization: %w", err)
	}
	defer doc.Close()

	pages := make([]PageImage, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		img, err := doc.ImageDPI(i, dpi)
		if err != nil {
			return nil, fmt.Errorf("rasterize page %d: %w", i, err)
		}
		scaled := clampImage(img, maxPixelSide)
		bounds := scaled.Bounds()
		pages = append(pages, PageImage{
			Index:  i,
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
			Image:  scaled,
		})
	}
	return pages, nil
}

// clampImage downscales img so its longest side does not exceed maxSide,
// preserving aspect ratio. Images already within bounds are returned as-is.
func clampImage(img image.Image, maxSide int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxSide {
		return img
	}
	scale := float64(maxSide) / float64(longest)
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
