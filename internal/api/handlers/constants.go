package handlers

const (
	// Reference uploads
	multipartReferenceField = "references"
	maxReferenceImages      = 8
	base64Overhead          = 4.0 / 3.0
	jsonBodySlackBytes      = 64 << 10

	imageCacheControl = "private, max-age=86400"
)
