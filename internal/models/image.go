package models

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const dataURLPrefix = "data:"

// ImageData is an encoded image payload together with its MIME type
type ImageData struct {
	Data     []byte `json:"-"`
	MimeType string `json:"mimeType"`
}

// DataURL renders the image as a base64 data URL (data:<mime>;base64,<payload>)
func (d ImageData) DataURL() string {
	return dataURLPrefix + d.MimeType + ";base64," + base64.StdEncoding.EncodeToString(d.Data)
}

// ParseDataURL decodes a base64 data URL produced by DataURL
func ParseDataURL(s string) (ImageData, error) {
	if !strings.HasPrefix(s, dataURLPrefix) {
		return ImageData{}, fmt.Errorf("not a data URL")
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(s, dataURLPrefix), ",")
	if !ok {
		return ImageData{}, fmt.Errorf("malformed data URL: missing payload separator")
	}
	mimeType, encoding, _ := strings.Cut(header, ";")
	if encoding != "base64" {
		return ImageData{}, fmt.Errorf("unsupported data URL encoding %q", encoding)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return ImageData{}, fmt.Errorf("failed to decode data URL payload: %w", err)
	}
	return ImageData{Data: data, MimeType: mimeType}, nil
}

// ReferenceImage is an image submitted alongside a prompt as a generation input.
// Data is base64 in JSON.
type ReferenceImage struct {
	Data     []byte `json:"data"`
	MimeType string `json:"mimeType"`
}

// ImageRecord is one generated image and the images refined from it.
// Children are append-only and kept in generation order.
type ImageRecord struct {
	ID        string        `json:"id"`
	Image     ImageData     `json:"image"`
	Children  []ImageRecord `json:"children"`
	CreatedAt time.Time     `json:"createdAt"`
}

// NewImageRecord wraps a generated payload into a childless record
func NewImageRecord(id string, image ImageData, createdAt time.Time) ImageRecord {
	return ImageRecord{
		ID:        id,
		Image:     image,
		Children:  []ImageRecord{},
		CreatedAt: createdAt,
	}
}

// AsReference reinterprets the record's image as a reference input for a further generation
func (r ImageRecord) AsReference() ReferenceImage {
	return ReferenceImage{Data: r.Image.Data, MimeType: r.Image.MimeType}
}

// Forest is the ordered set of root records of one generation run
type Forest []ImageRecord
