package extract

import "github.com/nao1215/pricewatch/internal/price"

// SiteAmazon is the site identifier recorded for amazon.it products.
const SiteAmazon = "amazon.it"

// NewAmazon builds the extractor for amazon.it product pages.
//
// Title: the dedicated span#productTitle element, then the generic
// fallbacks. Price: Amazon renders the buy-box price inside an
// offscreen accessibility span; the one nested under span.a-price is
// the current offer, any other a-offscreen is a weaker fallback.
func NewAmazon(n *price.Normalizer) *Extractor {
	return &Extractor{
		site: SiteAmazon,
		titleChain: []titleStrategy{
			selectorText("span#productTitle"),
			selectorText("h1"),
			metaContent(`meta[property="og:title"]`),
			headTitle,
		},
		priceChain: []priceStrategy{
			singlePrice("span.a-price > span.a-offscreen"),
			singlePrice("span.a-offscreen"),
		},
		normalizer: n,
	}
}
