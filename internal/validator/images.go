package validator

import (
	"encoding/base64"
	"fmt"
	"strings"

	"filadb-validator/internal/imagemeta"
)

const (
	// MaxImageBytes is the hard ceiling per image after base64 decode.
	MaxImageBytes = 5 << 20

	// Logo raster bounds, inclusive, in pixels per side.
	MinLogoPixels = 100
	MaxLogoPixels = 2048
)

var allowedImageMIMEs = map[string]bool{
	"image/png":     true,
	"image/jpeg":    true,
	"image/svg+xml": true,
}

var allowedImageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".svg":  true,
}

// CheckLogo applies the logo image policy to a base64 payload: the
// raster must be square with a side length inside the configured
// bounds. SVGs have no raster size and only get the structural check.
// All findings are Images-category errors.
func CheckLogo(mimeType, payload, name string) []ValidationError {
	imageErr := func(msg string) []ValidationError {
		return []ValidationError{{
			Category: CategoryImages,
			Level:    LevelError,
			Message:  msg,
			Path:     name,
		}}
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return imageErr(fmt.Sprintf("Image %s is not valid base64", name))
	}

	var dims imagemeta.Dimensions
	var ok bool
	switch mimeType {
	case "image/png":
		dims, ok = imagemeta.PNGDimensions(raw)
	case "image/jpeg":
		dims, ok = imagemeta.JPEGDimensions(raw)
	case "image/svg+xml":
		if !imagemeta.ValidSVG(raw) {
			return imageErr(fmt.Sprintf("Image %s is not a valid SVG document", name))
		}
		return nil
	default:
		return imageErr(fmt.Sprintf("Image %s has unsupported type %s", name, mimeType))
	}

	if !ok {
		return imageErr(fmt.Sprintf("Image %s is corrupted or not a valid %s", name, mimeType))
	}

	var errs []ValidationError
	if dims.Width != dims.Height {
		errs = append(errs, ValidationError{
			Category: CategoryImages,
			Level:    LevelError,
			Message:  fmt.Sprintf("Image %s is not square (%dx%d)", name, dims.Width, dims.Height),
			Path:     name,
		})
	}
	if dims.Width < MinLogoPixels || dims.Height < MinLogoPixels {
		errs = append(errs, ValidationError{
			Category: CategoryImages,
			Level:    LevelError,
			Message:  fmt.Sprintf("Image %s is too small: %dx%d (minimum %dpx)", name, dims.Width, dims.Height, MinLogoPixels),
			Path:     name,
		})
	}
	if dims.Width > MaxLogoPixels || dims.Height > MaxLogoPixels {
		errs = append(errs, ValidationError{
			Category: CategoryImages,
			Level:    LevelError,
			Message:  fmt.Sprintf("Image %s is too large: %dx%d (maximum %dpx)", name, dims.Width, dims.Height, MaxLogoPixels),
			Path:     name,
		})
	}
	return errs
}

// isLogoFilename matches the logo naming convention: the base filename
// must be exactly logo.<ext> for an allowed extension.
func isLogoFilename(name string) bool {
	base := name
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	dot := strings.LastIndexByte(base, '.')
	if dot <= 0 {
		return false
	}
	return strings.EqualFold(base[:dot], "logo") && allowedImageExts[strings.ToLower(base[dot:])]
}

// ValidateImages checks every entry of the submitted image map:
// extension allow-list, declared MIME type, base64 well-formedness and
// the post-decode size ceiling. Entries named like a logo additionally
// go through the logo policy. Entries are independent: one bad image
// never hides findings on its siblings.
func ValidateImages(images map[string]any) []ValidationError {
	var errs []ValidationError

	addErr := func(name, msg string) {
		errs = append(errs, ValidationError{
			Category: CategoryImages,
			Level:    LevelError,
			Message:  msg,
			Path:     name,
		})
	}

	for name, raw := range images {
		entry := SanitizeObject(raw)
		if entry == nil {
			addErr(name, fmt.Sprintf("Image %s entry is not an object", name))
			continue
		}

		ext := strings.ToLower(name)
		if i := strings.LastIndexByte(ext, '.'); i >= 0 {
			ext = ext[i:]
		} else {
			ext = ""
		}
		if !allowedImageExts[ext] {
			addErr(name, fmt.Sprintf("Image %s has unsupported extension", name))
			continue
		}

		mimeType, _ := entry["mime_type"].(string)
		if !allowedImageMIMEs[mimeType] {
			addErr(name, fmt.Sprintf("Image %s has unsupported MIME type %q", name, mimeType))
			continue
		}

		payload, _ := entry["data"].(string)
		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			addErr(name, fmt.Sprintf("Image %s is not valid base64", name))
			continue
		}
		if len(raw) > MaxImageBytes {
			addErr(name, fmt.Sprintf("Image %s exceeds maximum size of %d bytes", name, MaxImageBytes))
			continue
		}

		if isLogoFilename(name) {
			errs = append(errs, CheckLogo(mimeType, payload, name)...)
		}
	}
	return errs
}
