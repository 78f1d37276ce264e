package usd

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"path"
	"path/filepath"

	"github.com/anthonynsimon/bild/transform"
)

// writeTextures decodes the model's packed texture buffer and writes each
// texture into assets/ as a PNG. It returns the asset references relative to
// the frames directory, indexed by texture id.
//
// The packed buffer carries textures back to back as RGB rows from the bottom
// of the image up.
func (e *Exporter) writeTextures() ([]string, error) {
	paths := make([]string, len(e.model.Textures))
	offset := 0
	for i, t := range e.model.Textures {
		need := t.Width * t.Height * 3
		if offset+need > len(e.model.TexData) {
			return nil, fmt.Errorf("texture %d: pixel data overruns buffer (need %d bytes at offset %d, have %d)",
				i, need, offset, len(e.model.TexData))
		}
		src := e.model.TexData[offset : offset+need]
		offset += need

		img := image.NewRGBA(image.Rect(0, 0, t.Width, t.Height))
		for y := 0; y < t.Height; y++ {
			for x := 0; x < t.Width; x++ {
				p := (y*t.Width + x) * 3
				img.SetRGBA(x, y, color.RGBA{R: src[p], G: src[p+1], B: src[p+2], A: 255})
			}
		}
		flipped := transform.FlipV(img)

		var buf bytes.Buffer
		if err := png.Encode(&buf, flipped); err != nil {
			return nil, fmt.Errorf("encode texture %d: %w", i, err)
		}
		name := fmt.Sprintf("texture_%d.png", i)
		if err := e.opts.FS.WriteFile(filepath.Join(e.assetsDir, name), buf.Bytes(), 0644); err != nil {
			return nil, fmt.Errorf("write texture %d: %w", i, err)
		}

		// Scene files live in frames/ beside assets/, so references climb one
		// level. Forward slashes keep them portable across platforms.
		paths[i] = path.Join("..", assetsDirName, name)
	}
	return paths, nil
}
