package harvester

import (
	"net/url"

	"github.com/rohmanhakim/stream-harvester/internal/extractor"
	"github.com/rohmanhakim/stream-harvester/internal/storage"
	"github.com/rohmanhakim/stream-harvester/pkg/hashutil"
	"github.com/rohmanhakim/stream-harvester/pkg/retry"
)

// PagePlaceholder is replaced by the 1-based page number in the listing template.
const PagePlaceholder = "%d"

type Params struct {
	ListingURLTemplate string
	BaseURL            url.URL
	MaxPages           int
	EntityConcurrency  int
	TargetConcurrency  int
	EntitySelector     string
	TargetSelector     string
	OutputDir          string
	HashAlgo           hashutil.HashAlgo
	RetryParam         retry.RetryParam
}

// HarvestStats summarizes one harvest. Failures counts listing pages, entities
// and targets that failed, each once.
type HarvestStats struct {
	Pages        int
	Entities     int
	Targets      int
	Resolved     int
	Failures     int
	WriteResults []storage.WriteResult
}

type entityReport struct {
	targets     int
	resolved    int
	failures    int
	writeResult *storage.WriteResult
}

type entity struct {
	link extractor.Link
}

func (e entity) String() string {
	return e.link.Title
}

type target struct {
	link extractor.Link
}

func (t target) String() string {
	return t.link.Href.String()
}
