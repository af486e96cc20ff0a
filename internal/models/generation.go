package models

// BatchRequest asks the generation collaborator for Count independent variations
// of the same prompt and reference set
type BatchRequest struct {
	Prompt          string
	ReferenceImages []ReferenceImage
	Count           int
	Credential      string
	Model           string
}

// SlotError records why one slot of a batch produced no image
type SlotError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// BatchResult holds one entry per requested slot; a nil entry is a failed slot
type BatchResult struct {
	Images []*ImageData
	Errors []SlotError
}

// Succeeded returns the surviving images in slot order
func (r *BatchResult) Succeeded() []ImageData {
	if r == nil {
		return nil
	}
	out := make([]ImageData, 0, len(r.Images))
	for _, img := range r.Images {
		if img != nil {
			out = append(out, *img)
		}
	}
	return out
}

// DataURLs renders the slots for the JSON proxy contract: data URL or null per slot
func (r *BatchResult) DataURLs() []*string {
	if r == nil {
		return nil
	}
	out := make([]*string, len(r.Images))
	for i, img := range r.Images {
		if img == nil {
			continue
		}
		url := img.DataURL()
		out[i] = &url
	}
	return out
}
