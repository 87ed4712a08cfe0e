package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"golang.org/x/net/html"

	"github.com/nao1215/pricewatch/internal/model"
	"github.com/nao1215/pricewatch/internal/price"
)

// titleStrategy attempts to locate the product title in a parsed page.
// It returns the empty string when its selector yields nothing; the
// extractor then falls through to the next strategy in the chain.
type titleStrategy func(doc *goquery.Document) string

// priceStrategy attempts to locate and normalize the product price.
// It returns price.ErrNotFound to fall through to the next strategy and
// price.ErrParse to stop the chain with a parse-error sentinel.
type priceStrategy func(doc *goquery.Document, n *price.Normalizer) (decimal.Decimal, error)

// headTitleDelimiters split a <title> tag on the separators shops use
// between product name and store name ("Widget 128GB | MegaShop").
var headTitleDelimiters = regexp.MustCompile(`[:|\x{2013}-]`)

// Extractor turns fetched markup into a ProductRecord by walking ordered
// fallback chains of selection strategies. The chains differ per site,
// but the mechanism is shared: first strategy yielding a result wins,
// and a markup miss degrades into a sentinel value instead of an error.
//
// Extraction is a pure function of the markup; an Extractor holds no
// per-call state and is safe for concurrent use.
type Extractor struct {
	site       string
	titleChain []titleStrategy
	priceChain []priceStrategy
	normalizer *price.Normalizer
}

// Site returns the site identifier this extractor produces records for.
func (e *Extractor) Site() string {
	return e.site
}

// Extract applies the extractor's strategy chains to the given markup and
// assembles a complete record. It always returns a record: missing or
// malformed markup yields the sentinel values, never an error. Only the
// upstream fetch can prevent a record from being produced.
func (e *Extractor) Extract(markup, pageURL string) model.ProductRecord {
	record := model.ProductRecord{
		Site:  e.site,
		Title: model.TitleNotFound,
		Price: model.PriceNotFound,
		URL:   pageURL,
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		// html.Parse is lenient; a hard failure means the input is not
		// even text. Treat it as a total extraction miss.
		return record
	}

	for _, strategy := range e.titleChain {
		if title := strategy(doc); title != "" {
			record.Title = title
			break
		}
	}

	for _, strategy := range e.priceChain {
		val, err := strategy(doc, e.normalizer)
		if err == nil {
			record.Price = e.normalizer.Format(val)
			break
		}
		if errors.Is(err, price.ErrParse) {
			record.Price = model.PriceParseError
			break
		}
		// price.ErrNotFound: fall through to the next strategy.
	}

	return record
}

// For returns the extractor registered for the given site identifier.
// Unknown sites get the generic extractor, which relies on the shared
// fallback strategies only (h1 titles, full-page currency scan).
func For(site string, n *price.Normalizer) *Extractor {
	switch site {
	case SiteAmazon:
		return NewAmazon(n)
	case SitePhoneclick:
		return NewPhoneclick(n)
	case SiteTeknozone:
		return NewTeknozone(n)
	default:
		return NewGeneric(site, n)
	}
}

// NewGeneric builds an extractor for sites without dedicated selector
// knowledge: generic title fallbacks plus the full-page currency scan.
func NewGeneric(site string, n *price.Normalizer) *Extractor {
	return &Extractor{
		site: site,
		titleChain: []titleStrategy{
			selectorText("h1"),
			metaContent(`meta[property="og:title"]`),
			headTitle,
		},
		priceChain: []priceStrategy{
			currencyScan,
		},
		normalizer: n,
	}
}

// --- shared title strategies ---

// selectorText returns the trimmed text of the first element matching
// the CSS selector.
func selectorText(selector string) titleStrategy {
	return func(doc *goquery.Document) string {
		return strings.TrimSpace(doc.Find(selector).First().Text())
	}
}

// metaContent returns the content attribute of the first matching meta
// tag.
func metaContent(selector string) titleStrategy {
	return func(doc *goquery.Document) string {
		content, _ := doc.Find(selector).First().Attr("content")
		return strings.TrimSpace(content)
	}
}

// headTitle falls back to the document <title>, truncated at the first
// delimiter shops typically put between product and store name.
func headTitle(doc *goquery.Document) string {
	raw := strings.TrimSpace(doc.Find("title").First().Text())
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(headTitleDelimiters.Split(raw, 2)[0])
}

// --- shared price strategies ---

// singlePrice normalizes the text of the first element matching the CSS
// selector. A parse failure on a dedicated price element is terminal:
// the element is the price, so a malformed value is worth flagging
// rather than silently scanning elsewhere.
func singlePrice(selector string) priceStrategy {
	return func(doc *goquery.Document, n *price.Normalizer) (decimal.Decimal, error) {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			return decimal.Zero, price.ErrNotFound
		}
		return n.Normalize(sel.Text())
	}
}

// elementScan tries each element matched by the selector in document
// order, skipping those without a currency symbol or with unparseable
// text; the first normalizer success wins.
func elementScan(selector string) priceStrategy {
	return func(doc *goquery.Document, n *price.Normalizer) (decimal.Decimal, error) {
		var found decimal.Decimal
		var err error = price.ErrNotFound
		doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			text := sel.Text()
			if !strings.Contains(text, "€") {
				return true
			}
			val, normErr := n.Normalize(text)
			if normErr != nil {
				return true
			}
			found, err = val, nil
			return false
		})
		return found, err
	}
}

// currencyScan is the last-resort strategy: walk every visible text
// fragment on the page, normalize those containing a currency symbol,
// and pick the most plausible candidate using the normalizer's
// rightmost-under-threshold rule.
func currencyScan(doc *goquery.Document, n *price.Normalizer) (decimal.Decimal, error) {
	var values []decimal.Decimal
	for _, fragment := range textFragments(doc) {
		if !strings.Contains(fragment, "€") {
			continue
		}
		if val, err := n.Normalize(fragment); err == nil {
			values = append(values, val)
		}
	}
	if len(values) == 0 {
		return decimal.Zero, price.ErrNotFound
	}
	return n.Select(values), nil
}

// textFragments collects the trimmed contents of every text node in
// document order, skipping script and style subtrees.
func textFragments(doc *goquery.Document) []string {
	var fragments []string

	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			switch node.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if node.Type == html.TextNode {
			if text := strings.TrimSpace(node.Data); text != "" {
				fragments = append(fragments, text)
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}

	for _, node := range doc.Nodes {
		walk(node)
	}
	return fragments
}

// String identifies the extractor in logs.
func (e *Extractor) String() string {
	return fmt.Sprintf("extractor(%s)", e.site)
}
