package models

// SearchRequest is the payload for POST /v1/search
type SearchRequest struct {
	Query string `json:"query,omitempty"`
	Tags  string `json:"tags,omitempty"`
	Page  int    `json:"page,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// PreviewRequest is the payload for POST /v1/previews
type PreviewRequest struct {
	ID         int    `json:"id"`
	Path       string `json:"path"`
	Generation int64  `json:"generation"`
	Size       int    `json:"size"`
}

// DownloadRequest is the payload for POST /v1/downloads
type DownloadRequest struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	License  string `json:"license"`
	MimeType string `json:"mimeType"`
	Tags     string `json:"tags"`
	HVIFPath string `json:"hvifPath,omitempty"`
	SVGPath  string `json:"svgPath,omitempty"`
	IOMPath  string `json:"iomPath,omitempty"`
}

// AcceptedResponse acknowledges a queued operation
type AcceptedResponse struct {
	Status     string `json:"status"`
	Generation int64  `json:"generation"`
}

// CancelResponse reports the generation after a bulk cancel
type CancelResponse struct {
	Generation int64 `json:"generation"`
}
