package pdf

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText returns the embedded text of every page in physical order,
// each page's contribution terminated by a newline whether or not the page
// yielded text. A page whose extraction fails contributes the empty string;
// a document that cannot be parsed at all is the caller's error to interpret.
func ExtractText(src *Source) (string, error) {
	ra, size, err := src.Reader()
	if err != nil {
		return "", err
	}
	reader, err := pdf.NewReader(ra, size)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if !page.V.IsNull() {
			if text, err := page.GetPlainText(nil); err == nil {
				b.WriteString(text)
			}
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

// PageCount reports the number of pages, or an error if the document cannot
// be opened.
func PageCount(src *Source) (int, error) {
	ra, size, err := src.Reader()
	if err != nil {
		return 0, err
	}
	reader, err := pdf.NewReader(ra, size)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	return reader.NumPage(), nil
}
