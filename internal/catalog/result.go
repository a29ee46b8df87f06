package catalog

import (
	"fmt"
	"image"
)

// Kind tags a delivery to a ResultSink
type Kind string

const (
	KindCategoriesLoaded    Kind = "categories-loaded"
	KindSearchResultsLoaded Kind = "search-results-loaded"
	KindPreviewReady        Kind = "preview-ready"
	KindArtifactsReady      Kind = "artifacts-ready"
	KindNetworkError        Kind = "network-error"
)

// Format names one of the artifact files a bundle can carry
type Format string

const (
	FormatHVIF Format = "hvif"
	FormatSVG  Format = "svg"
	FormatIOM  Format = "iom"
)

// ResultSink receives asynchronous deliveries. Deliver is never called on the
// manager loop; it may submit new operations, but must not block for long.
type ResultSink interface {
	Deliver(Result)
}

// SinkFunc adapts a function to ResultSink
type SinkFunc func(Result)

func (f SinkFunc) Deliver(r Result) { f(r) }

// Result is one delivery. Exactly one of Data, Preview, Artifacts or Err is
// set, according to Kind.
type Result struct {
	Kind       Kind
	RequestID  string
	Generation int64
	Extra      Extra

	Data      any // decoded JSON for categories and search
	Preview   *Preview
	Artifacts *ArtifactBundle
	Err       *NetworkError
}

// Preview is the payload of a preview-ready delivery
type Preview struct {
	ID         int
	Generation int64
	Size       int
	Image      image.Image
}

// ArtifactMeta is the descriptive data passed through a bundle download
type ArtifactMeta struct {
	ID       int
	Title    string
	Author   string
	License  string
	MimeType string
	Tags     string
}

// ArtifactBundle holds whichever artifacts were retrieved; missing ones are nil
type ArtifactBundle struct {
	ArtifactMeta
	HVIF []byte
	SVG  []byte
	IOM  []byte
}

func (b *ArtifactBundle) set(f Format, data []byte) {
	switch f {
	case FormatHVIF:
		b.HVIF = data
	case FormatSVG:
		b.SVG = data
	case FormatIOM:
		b.IOM = data
	}
}

// Formats lists the artifacts present in the bundle in fetch order
func (b *ArtifactBundle) Formats() []Format {
	var out []Format
	if b.HVIF != nil {
		out = append(out, FormatHVIF)
	}
	if b.SVG != nil {
		out = append(out, FormatSVG)
	}
	if b.IOM != nil {
		out = append(out, FormatIOM)
	}
	return out
}

// NetworkError is the payload of a network-error delivery. URL and Status
// are zero when they do not apply.
type NetworkError struct {
	Message string
	URL     string
	Status  int
}

func (e *NetworkError) Error() string {
	switch {
	case e.URL != "" && e.Status != 0:
		return fmt.Sprintf("%s (%s, status %d)", e.Message, e.URL, e.Status)
	case e.URL != "":
		return fmt.Sprintf("%s (%s)", e.Message, e.URL)
	}
	return e.Message
}
