package config

import "sort"

// SiteConfig holds the per-site settings for one tracked shop.
type SiteConfig struct {
	// URL is the canonical product page to track on this site.
	URL string `yaml:"url"`

	// Headers are extra HTTP headers for requests to this site, such as
	// a Cookie needed to see member pricing.
	Headers map[string]string `yaml:"headers,omitempty"`

	// RetailThreshold overrides the price-disambiguation threshold for
	// this site. Zero means use the normalizer default. The threshold is
	// a heuristic (rightmost candidate under it is assumed to be the
	// single-item price), so shops selling mostly four-figure items can
	// raise it here.
	RetailThreshold int64 `yaml:"retailThreshold,omitempty"`
}

// File represents the structure of the .pricewatch configuration file.
type File struct {
	// Sites maps a site identifier (e.g. "amazon.it") to its settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults are applied to every site unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// DefaultSites returns the built-in tracked site set, used when no
// configuration file is present.
func DefaultSites() *File {
	return &File{
		Sites: map[string]SiteConfig{
			"amazon.it": {
				URL: "https://www.amazon.it/dp/B0C78GHQRJ/",
			},
			"phoneclick.it": {
				URL: "https://www.phoneclick.it/samsung/galaxy-s23/samsung-galaxy-s23-5g-256gb-8gb-ram-dual-sim-black-europa",
			},
			"teknozone.it": {
				URL: "https://www.teknozone.it/smartphone-samsung/galaxy-s23/samsung-galaxy-s23-5g-256gb-8gb-ram-dual-sim-black-europa",
			},
		},
	}
}

// Names returns the configured site identifiers in stable sorted order,
// so runs and reports are deterministic regardless of map iteration.
func (cf *File) Names() []string {
	names := make([]string, 0, len(cf.Sites))
	for name := range cf.Sites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetSiteConfig returns the merged configuration for one site:
// site-specific values override the file defaults.
func (cf *File) GetSiteConfig(name string) SiteConfig {
	result := cf.Defaults

	if site, ok := cf.Sites[name]; ok {
		if site.URL != "" {
			result.URL = site.URL
		}
		if site.RetailThreshold != 0 {
			result.RetailThreshold = site.RetailThreshold
		}
		if len(site.Headers) > 0 {
			merged := make(map[string]string, len(result.Headers)+len(site.Headers))
			for k, v := range result.Headers {
				merged[k] = v
			}
			for k, v := range site.Headers {
				merged[k] = v
			}
			result.Headers = merged
		}
	}

	return result
}
