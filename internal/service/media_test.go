package service

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/textproto"
	"testing"

	"photoshare/internal/model"
)

// 1x1 lossless WebP.
const webpPixel = "UklGRhoAAABXRUJQVlA4TA0AAAAvAAAAEAcQERGIiP4HAA=="

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func decodeWebP(t *testing.T) []byte {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(webpPixel)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return data
}

func TestNormalizePhoto(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantW   int
		wantH   int
		wantErr error
	}{
		{"webp", decodeWebP(t), 1, 1, nil},
		{"small png keeps size", encodePNG(t, 40, 30), 40, 30, nil},
		{"wide png is bounded", encodePNG(t, model.PhotoMaxDimension*2, 10), model.PhotoMaxDimension, 5, nil},
		{"not an image", []byte("plain text"), 0, 0, model.ErrInvalidImageType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := normalizePhoto(tt.data)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalizePhoto: %v", err)
			}

			img, err := jpeg.Decode(bytes.NewReader(out))
			if err != nil {
				t.Fatalf("output is not a JPEG: %v", err)
			}
			if size := img.Bounds().Size(); size.X != tt.wantW || size.Y != tt.wantH {
				t.Errorf("size = %dx%d, want %dx%d", size.X, size.Y, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestLoadPhotoUpload(t *testing.T) {
	webp := decodeWebP(t)

	tests := []struct {
		name        string
		data        []byte
		contentType string
		size        int64
		wantErr     error
	}{
		{"webp declared", webp, model.ContentTypeWebP, 0, nil},
		{"png sniffed", encodePNG(t, 2, 2), "", 0, nil},
		{"parameters ignored", webp, "image/webp; charset=binary", 0, nil},
		{"unsupported type", []byte("%PDF-1.4"), "application/pdf", 0, model.ErrInvalidImageType},
		{"declared too large", webp, model.ContentTypeWebP, model.MaxPhotoSize + 1, model.ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, header := newUpload(tt.data)
			header.Header = textproto.MIMEHeader{}
			if tt.contentType != "" {
				header.Header.Set("Content-Type", tt.contentType)
			}
			if tt.size > 0 {
				header.Size = tt.size
			}

			data, err := loadPhotoUpload(file, header)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr == nil && !bytes.Equal(data, tt.data) {
				t.Errorf("upload bytes were altered")
			}
		})
	}
}
