package extractor

import "net/url"

// Link is one {href, title} pair matched by a selector, in document order.
// Title is the element's trimmed title attribute, empty when it has none.
type Link struct {
	Href  url.URL
	Title string
}

// Default selectors for the listing, detail and player pages.
const (
	DefaultEntitySelector = "div.content-section > .poster"
	DefaultTargetSelector = "div.serie-episodes > a.episode"
	DefaultIframeSelector = ".flix_app_player > iframe:nth-child(1)"
	DefaultVideoSelector  = "#main-video"
)
