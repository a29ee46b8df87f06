package stream

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/shehryarbajwa/iconbase-mini/internal/catalog"
	"github.com/shehryarbajwa/iconbase-mini/pkg/models"
)

// NewEvent converts a catalog delivery into its wire form. Preview images
// are re-encoded as PNG.
func NewEvent(r catalog.Result) (models.Event, error) {
	ev := models.Event{
		Kind:       string(r.Kind),
		RequestID:  r.RequestID,
		Generation: r.Generation,
		Extra:      r.Extra,
		Data:       r.Data,
	}

	if p := r.Preview; p != nil {
		payload := &models.PreviewPayload{
			ID:         p.ID,
			Generation: p.Generation,
			Size:       p.Size,
		}
		if p.Image != nil {
			var buf bytes.Buffer
			if err := png.Encode(&buf, p.Image); err != nil {
				return ev, fmt.Errorf("encode preview: %w", err)
			}
			b := p.Image.Bounds()
			payload.Width = b.Dx()
			payload.Height = b.Dy()
			payload.PNG = buf.Bytes()
		}
		ev.Preview = payload
	}

	if a := r.Artifacts; a != nil {
		ev.Artifacts = &models.ArtifactsPayload{
			ID:       a.ID,
			Title:    a.Title,
			Author:   a.Author,
			License:  a.License,
			MimeType: a.MimeType,
			Tags:     a.Tags,
			HVIF:     a.HVIF,
			SVG:      a.SVG,
			IOM:      a.IOM,
		}
	}

	if e := r.Err; e != nil {
		ev.Error = &models.ErrorPayload{
			Error:  e.Message,
			URL:    e.URL,
			Status: e.Status,
		}
	}

	return ev, nil
}
