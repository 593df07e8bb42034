package workflow_test

import (
	"bytes"
	"image"
	"image/jpeg"
	"testing"

	"github.com/JaimeStill/verdant/internal/workflow"
)

func TestDecodeImage(t *testing.T) {
	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, image.NewRGBA(image.Rect(0, 0, 8, 8)), nil); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		data    []byte
		format  string
		wantErr bool
	}{
		{"png", pngBytes(t), "png", false},
		{"jpeg", jpg.Bytes(), "jpeg", false},
		{"empty", nil, "", true},
		{"text", []byte("hello"), "", true},
		{"truncated png", pngBytes(t)[:40], "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, err := workflow.DecodeImage(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if format != tt.format {
				t.Errorf("format = %q, want %q", format, tt.format)
			}
		})
	}
}
