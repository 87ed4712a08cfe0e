package extract

import "github.com/nao1215/pricewatch/internal/price"

// SitePhoneclick is the site identifier recorded for phoneclick.it
// products.
const SitePhoneclick = "phoneclick.it"

// NewPhoneclick builds the extractor for phoneclick.it product pages.
//
// Title: the shop's h1.caratteretitolo heading, then the generic
// fallbacks. Price: discounted prices are wrapped in an <ins> element;
// when absent the full-page currency scan takes over, since the shop's
// regular-price markup varies between product templates.
func NewPhoneclick(n *price.Normalizer) *Extractor {
	return &Extractor{
		site: SitePhoneclick,
		titleChain: []titleStrategy{
			selectorText("h1.caratteretitolo"),
			selectorText("h1"),
			metaContent(`meta[property="og:title"]`),
			headTitle,
		},
		priceChain: []priceStrategy{
			singlePrice("ins"),
			currencyScan,
		},
		normalizer: n,
	}
}
