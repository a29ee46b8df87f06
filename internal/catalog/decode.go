package catalog

import (
	"bytes"
	"encoding/json"
	"image"

	// registered for image.Decode
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Decoders turn response bodies into result payloads. The manager only
// branches on their error.
type Decoders struct {
	JSON  func([]byte) (any, error)
	Image func([]byte) (image.Image, error)
}

// DefaultDecoders decodes JSON into generic values and images with the
// standard library codecs.
func DefaultDecoders() Decoders {
	return Decoders{JSON: DecodeJSON, Image: DecodeImage}
}

func (d Decoders) withDefaults() Decoders {
	if d.JSON == nil {
		d.JSON = DecodeJSON
	}
	if d.Image == nil {
		d.Image = DecodeImage
	}
	return d
}

// DecodeJSON decodes a JSON body into generic maps, slices and scalars
func DecodeJSON(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeImage decodes a PNG, JPEG or GIF body
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}
