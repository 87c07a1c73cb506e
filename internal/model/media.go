package model

const (
	PhotoExt          = ".jpg"
	PhotoContentType  = "image/jpeg"
	PhotoCacheControl = "public, max-age=31536000" // 1 year
)

// Supported image content types for upload validation
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"
)

var allowedImageTypes = map[string]struct{}{
	ContentTypeJPEG: {},
	ContentTypePNG:  {},
	ContentTypeGIF:  {},
	ContentTypeWebP: {},
}

// FileRef is the opaque handle file storage returns for an uploaded photo.
// Key is the object key inside the bucket, URL the public-facing address.
type FileRef struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// IsAllowedImageType reports if the provided content type is supported
func IsAllowedImageType(contentType string) bool {
	_, ok := allowedImageTypes[contentType]
	return ok
}
