package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/Conceptual-Machines/refinery-api/internal/models"
)

// ReferenceImageInput is the JSON form of a reference image. Data is either plain base64 or a
// base64 data URL.
type ReferenceImageInput struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

// decodeReferences validates and decodes JSON references against a total byte budget
func decodeReferences(inputs []ReferenceImageInput, maxBytes int64) ([]models.ReferenceImage, error) {
	if len(inputs) > maxReferenceImages {
		return nil, fmt.Errorf("%w: %d (max %d)", errTooManyImages, len(inputs), maxReferenceImages)
	}

	refs := make([]models.ReferenceImage, 0, len(inputs))
	var total int64
	for i, in := range inputs {
		data, err := decodeImagePayload(in.Data)
		if err != nil {
			return nil, fmt.Errorf("%w %d: %v", errInvalidReference, i, err)
		}
		total += int64(len(data))
		if maxBytes > 0 && total > maxBytes {
			return nil, errUploadTooLarge
		}
		ref, err := sniffReference(data)
		if err != nil {
			return nil, fmt.Errorf("%w %d: %v", errInvalidReference, i, err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func decodeImagePayload(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		img, err := models.ParseDataURL(s)
		if err != nil {
			return nil, err
		}
		return img.Data, nil
	}
	return base64.StdEncoding.DecodeString(s)
}

// sniffReference checks the payload really is an image; the detected type wins over any declared one
func sniffReference(data []byte) (models.ReferenceImage, error) {
	if len(data) == 0 {
		return models.ReferenceImage{}, fmt.Errorf("empty payload")
	}
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return models.ReferenceImage{}, fmt.Errorf("not an image (detected %s)", mimeType)
	}
	return models.ReferenceImage{Data: data, MimeType: mimeType}, nil
}

// readMultipartReferences loads uploaded files against a total byte budget
func readMultipartReferences(files []*multipart.FileHeader, maxBytes int64) ([]models.ReferenceImage, error) {
	if len(files) > maxReferenceImages {
		return nil, fmt.Errorf("%w: %d (max %d)", errTooManyImages, len(files), maxReferenceImages)
	}

	refs := make([]models.ReferenceImage, 0, len(files))
	var total int64
	for _, fh := range files {
		total += fh.Size
		if maxBytes > 0 && total > maxBytes {
			return nil, errUploadTooLarge
		}

		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("%w %s: %v", errInvalidReference, fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%w %s: %v", errInvalidReference, fh.Filename, err)
		}

		ref, err := sniffReference(data)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %v", errInvalidReference, fh.Filename, err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// limitBody caps the request body at what maxBytes of base64 payload plus JSON framing needs
func limitBody(w http.ResponseWriter, r *http.Request, maxBytes int64) {
	if maxBytes <= 0 {
		return
	}
	limit := int64(float64(maxBytes)*base64Overhead) + jsonBodySlackBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit)
}

// bindError classifies a request decoding failure
func bindError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errUploadTooLarge
	}
	return fmt.Errorf("%w: %v", errInvalidRequest, err)
}
