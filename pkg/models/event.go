package models

// Event is one delivery pushed to stream subscribers
type Event struct {
	Kind       string            `json:"kind"`
	RequestID  string            `json:"requestId"`
	Generation int64             `json:"generation"`
	Extra      map[string]any    `json:"extra,omitempty"`
	Data       any               `json:"data,omitempty"`
	Preview    *PreviewPayload   `json:"preview,omitempty"`
	Artifacts  *ArtifactsPayload `json:"artifacts,omitempty"`
	Error      *ErrorPayload     `json:"error,omitempty"`
}

// PreviewPayload carries a decoded preview re-encoded as PNG
type PreviewPayload struct {
	ID         int    `json:"id"`
	Generation int64  `json:"generation"`
	Size       int    `json:"size"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	PNG        []byte `json:"png"`
}

// ArtifactsPayload carries whichever artifact files were retrieved
type ArtifactsPayload struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	License  string `json:"license"`
	MimeType string `json:"mimeType"`
	Tags     string `json:"tags"`
	HVIF     []byte `json:"hvif_data,omitempty"`
	SVG      []byte `json:"svg_data,omitempty"`
	IOM      []byte `json:"iom_data,omitempty"`
}

// ErrorPayload describes a network-error delivery
type ErrorPayload struct {
	Error  string `json:"error"`
	URL    string `json:"url,omitempty"`
	Status int    `json:"status,omitempty"`
}
