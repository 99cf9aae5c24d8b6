package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"reflect"
	"testing"

	"github.com/wudi/pdf2text/pdf"
)

func testPage(index int) pdf.PageImage {
	return pdf.PageImage{
		Index:  index,
		Width:  2,
		Height: 2,
		Image:  image.NewRGBA(image.Rect(0, 0, 2, 2)),
	}
}

func TestInputFromPage(t *testing.T) {
	meta := map[string]string{"tessedit_pageseg_mode": "6"}
	in, err := InputFromPage(
		testPage(2),
		WithLanguages("eng", "spa"),
		WithDPI(300),
		WithMetadata(meta),
	)
	if err != nil {
		t.Fatalf("InputFromPage() error = %v", err)
	}
	if in.Format != ImageFormatPNG {
		t.Fatalf("unexpected format: %v", in.Format)
	}
	if in.PageIndex != 2 {
		t.Fatalf("unexpected page index: %d", in.PageIndex)
	}
	if in.ID != "page-2" {
		t.Fatalf("unexpected id: %s", in.ID)
	}
	if len(in.Image) == 0 {
		t.Fatalf("expected encoded image data")
	}
	if !reflect.DeepEqual(in.Languages, []string{"eng", "spa"}) {
		t.Fatalf("unexpected languages: %+v", in.Languages)
	}
	if in.DPI != 300 {
		t.Fatalf("unexpected dpi: %d", in.DPI)
	}
	meta["tessedit_pageseg_mode"] = "7"
	if in.Metadata["tessedit_pageseg_mode"] != "6" {
		t.Fatalf("metadata was not copied: %+v", in.Metadata)
	}
}

func TestWithTesseractPSM(t *testing.T) {
	var in Input
	WithTesseractPSM(6)(&in)
	if in.Metadata["tessedit_pageseg_mode"] != "6" {
		t.Fatalf("unexpected metadata: %+v", in.Metadata)
	}
}

func TestWithMetadataEmptyClears(t *testing.T) {
	in := Input{Metadata: map[string]string{"k": "v"}}
	WithMetadata(nil)(&in)
	if in.Metadata != nil {
		t.Fatalf("expected metadata cleared")
	}
}

type fakeEngine struct {
	calls  int
	failAt int
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(_ context.Context, in Input) (Result, error) {
	f.calls++
	if f.failAt > 0 && f.calls == f.failAt {
		return Result{}, errors.New("engine failure")
	}
	return Result{InputID: in.ID, PlainText: in.ID + " text"}, nil
}

type fakeBatchEngine struct {
	fakeEngine
	batchCalls int
}

func (f *fakeBatchEngine) RecognizeBatch(_ context.Context, inputs []Input) ([]Result, error) {
	f.batchCalls++
	out := make([]Result, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, Result{InputID: in.ID, PlainText: in.ID + " text"})
	}
	return out, nil
}

func TestRecognizePagesSequential(t *testing.T) {
	engine := &fakeEngine{}
	pages := []pdf.PageImage{testPage(0), testPage(1), testPage(2)}
	results, err := RecognizePages(context.Background(), engine, pages)
	if err != nil {
		t.Fatalf("RecognizePages() error = %v", err)
	}
	if engine.calls != 3 {
		t.Fatalf("unexpected call count: %d", engine.calls)
	}
	for i, res := range results {
		if want := fmt.Sprintf("page-%d", i); res.InputID != want {
			t.Fatalf("result %d out of order: %s", i, res.InputID)
		}
	}
}

func TestRecognizePagesPrefersBatch(t *testing.T) {
	engine := &fakeBatchEngine{}
	pages := []pdf.PageImage{testPage(0), testPage(1)}
	results, err := RecognizePages(context.Background(), engine, pages)
	if err != nil {
		t.Fatalf("RecognizePages() error = %v", err)
	}
	if engine.batchCalls != 1 {
		t.Fatalf("expected one batch call, got %d", engine.batchCalls)
	}
	if engine.calls != 0 {
		t.Fatalf("single-image path should not run: %d", engine.calls)
	}
	if len(results) != 2 {
		t.Fatalf("unexpected result count: %d", len(results))
	}
}

func TestRecognizePagesEngineError(t *testing.T) {
	engine := &fakeEngine{failAt: 2}
	pages := []pdf.PageImage{testPage(0), testPage(1)}
	if _, err := RecognizePages(context.Background(), engine, pages); err == nil {
		t.Fatalf("expected engine error to propagate")
	}
}

func TestRecognizePagesCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	engine := &fakeEngine{}
	if _, err := RecognizePages(ctx, engine, []pdf.PageImage{testPage(0)}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
