package util

import (
	"bytes"
	"fmt"
	"image"
	"net/http"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"go-admin-console/pkg/apierror"
)

// ImageInfo describes an upload that decoded as an image.
type ImageInfo struct {
	Format string
	Width  int
	Height int
	MIME   string
}

// InspectImage checks that data is an image. Raster formats must decode;
// SVG is accepted on its extension and sniffed XML.
func InspectImage(filename string, data []byte) (ImageInfo, error) {
	if len(data) == 0 {
		return ImageInfo{}, apierror.New(apierror.CodeValidation, "Image file is empty", filename, http.StatusBadRequest)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".svg" {
		if !bytes.Contains(data[:min(len(data), 1024)], []byte("<svg")) {
			return ImageInfo{}, apierror.New(apierror.CodeValidation, "File is not a valid image", filename, http.StatusBadRequest)
		}
		return ImageInfo{Format: "svg", MIME: "image/svg+xml"}, nil
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{}, apierror.New(apierror.CodeValidation, "File is not a valid image", fmt.Sprintf("%s: %v", filename, err), http.StatusBadRequest)
	}

	return ImageInfo{
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
		MIME:   DetectMIME(data, ext),
	}, nil
}
