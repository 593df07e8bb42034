package workflow

import (
	"bytes"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeImage fully decodes data and returns the registered format name.
// A header that parses but pixel data that does not is still invalid.
func DecodeImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty image")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode config: %w", err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return "", fmt.Errorf("zero-area %s image", format)
	}

	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("decode %s: %w", format, err)
	}

	return format, nil
}
