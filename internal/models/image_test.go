package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageData_DataURL(t *testing.T) {
	img := ImageData{Data: []byte("png-bytes"), MimeType: "image/png"}

	url := img.DataURL()
	assert.Equal(t, "data:image/png;base64,cG5nLWJ5dGVz", url)

	parsed, err := ParseDataURL(url)
	require.NoError(t, err)
	assert.Equal(t, img, parsed)
}

func TestParseDataURL_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "plain base64", input: "cG5nLWJ5dGVz"},
		{name: "missing comma", input: "data:image/png;base64"},
		{name: "not base64 encoded", input: "data:image/png,raw"},
		{name: "corrupt payload", input: "data:image/png;base64,!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDataURL(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestNewImageRecord(t *testing.T) {
	now := time.Now()
	rec := NewImageRecord("id-1", ImageData{Data: []byte{1, 2}, MimeType: "image/jpeg"}, now)

	assert.Equal(t, "id-1", rec.ID)
	assert.NotNil(t, rec.Children)
	assert.Empty(t, rec.Children)
	assert.Equal(t, now, rec.CreatedAt)

	ref := rec.AsReference()
	assert.Equal(t, []byte{1, 2}, ref.Data)
	assert.Equal(t, "image/jpeg", ref.MimeType)
}

func TestBatchResult(t *testing.T) {
	img0 := &ImageData{Data: []byte("a"), MimeType: "image/png"}
	img2 := &ImageData{Data: []byte("c"), MimeType: "image/png"}
	result := &BatchResult{
		Images: []*ImageData{img0, nil, img2},
		Errors: []SlotError{{Index: 1, Message: "blocked"}},
	}

	succeeded := result.Succeeded()
	require.Len(t, succeeded, 2)
	assert.Equal(t, []byte("a"), succeeded[0].Data)
	assert.Equal(t, []byte("c"), succeeded[1].Data)

	urls := result.DataURLs()
	require.Len(t, urls, 3)
	assert.NotNil(t, urls[0])
	assert.Nil(t, urls[1])
	assert.Equal(t, img2.DataURL(), *urls[2])

	var empty *BatchResult
	assert.Nil(t, empty.Succeeded())
	assert.Nil(t, empty.DataURLs())
}
