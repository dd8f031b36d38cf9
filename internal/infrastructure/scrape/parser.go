// Package scrape turns an already-fetched product page into an observed product.
package scrape

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pearcestephens/catalogmatch/internal/domain"
)

// ParseProductPage reads product details from HTML using Open Graph tags,
// schema.org microdata and the page heading, in that order of preference.
// Fields the page does not expose are left empty.
func ParseProductPage(r io.Reader) (domain.ObservedProduct, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return domain.ObservedProduct{}, fmt.Errorf("parse product page: %w", err)
	}

	product := domain.ObservedProduct{
		Name: firstNonEmpty(
			metaContent(doc, `meta[property="og:title"]`),
			itemprop(doc, "name"),
			text(doc.Find("h1").First()),
			text(doc.Find("title").First()),
		),
		Brand: firstNonEmpty(
			brand(doc),
			metaContent(doc, `meta[property="product:brand"]`),
			metaContent(doc, `meta[property="og:brand"]`),
		),
		SKUOrModel: firstNonEmpty(
			itemprop(doc, "sku"),
			itemprop(doc, "mpn"),
			itemprop(doc, "model"),
			metaContent(doc, `meta[property="product:retailer_item_id"]`),
		),
		ImageURL: firstNonEmpty(
			metaContent(doc, `meta[property="og:image"]`),
			itempropImage(doc),
		),
	}

	doc.Find(`[itemprop="color"]`).First().Each(func(_ int, s *goquery.Selection) {
		product.Attributes.Color = valueOf(s)
	})
	doc.Find(`[itemprop="size"]`).First().Each(func(_ int, s *goquery.Selection) {
		product.Attributes.Size = valueOf(s)
	})

	if product.Name == "" {
		return product, fmt.Errorf("%w: no product name found on page", domain.ErrInvalidRequest)
	}
	return product, nil
}

// brand handles both <span itemprop="brand">X</span> and the nested
// <div itemprop="brand" itemscope><meta itemprop="name" content="X"></div> forms.
func brand(doc *goquery.Document) string {
	s := doc.Find(`[itemprop="brand"]`).First()
	if s.Length() == 0 {
		return ""
	}
	if nested := s.Find(`[itemprop="name"]`).First(); nested.Length() > 0 {
		return valueOf(nested)
	}
	return valueOf(s)
}

// itemprop returns the first top-level product property, skipping values nested in another item such as the brand
func itemprop(doc *goquery.Document, prop string) string {
	var value string
	doc.Find(`[itemprop="` + prop + `"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.ParentsFiltered(`[itemprop="brand"], [itemprop="offers"], [itemprop="review"]`).Length() > 0 {
			return true
		}
		value = valueOf(s)
		return value == ""
	})
	return value
}

func itempropImage(doc *goquery.Document) string {
	s := doc.Find(`[itemprop="image"]`).First()
	if s.Length() == 0 {
		return ""
	}
	for _, attr := range []string{"src", "content", "href"} {
		if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// valueOf prefers the content attribute used by <meta> microdata over element text
func valueOf(s *goquery.Selection) string {
	if v, ok := s.Attr("content"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return text(s)
}

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(v)
}

func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
