// Package markup finds image references inside HTML fragments taken from post bodies.
package markup

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ImageSources returns the src attribute of every <img> element in fragment,
// in document order. Elements without a src, or with an empty one, are skipped.
//
// The fragment is parsed with the HTML5 tree-building rules, which accept any
// input, so malformed post bodies still yield the images the parser recovers.
func ImageSources(fragment string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		// only a failing reader makes the parser return an error
		return nil
	}

	var sources []string
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			if src = strings.TrimSpace(src); src != "" {
				sources = append(sources, src)
			}
		}
	})
	return sources
}
