package extract

import "github.com/nao1215/pricewatch/internal/price"

// SiteTeknozone is the site identifier recorded for teknozone.it
// products.
const SiteTeknozone = "teknozone.it"

// NewTeknozone builds the extractor for teknozone.it product pages.
//
// Title: the shop's h1.product-title heading, then the generic
// fallbacks. Price: the shop shows prices in <strong> and <span>
// elements next to a euro sign; the first such element that normalizes
// wins, with the full-page scan as the last resort.
func NewTeknozone(n *price.Normalizer) *Extractor {
	return &Extractor{
		site: SiteTeknozone,
		titleChain: []titleStrategy{
			selectorText("h1.product-title"),
			selectorText("h1"),
			metaContent(`meta[property="og:title"]`),
			headTitle,
		},
		priceChain: []priceStrategy{
			elementScan("strong, span"),
			currencyScan,
		},
		normalizer: n,
	}
}
