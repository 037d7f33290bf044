package outline

import (
	"fmt"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/glyphedit/glyphedit/internal/typeid"
)

// SampleRunes are the characters imported into a new font.
var SampleRunes = []rune("ABOano")

// NewSampleFont builds a starter font from the bundled Go Regular face.
func NewSampleFont(id string) (*Font, error) {
	if id == "" {
		id = typeid.NewFontID()
	}
	f, err := ImportSFNT(id, goregular.TTF, SampleRunes)
	if err != nil {
		return nil, fmt.Errorf("sample font: %w", err)
	}
	f.Name = "Untitled"
	return f, nil
}
