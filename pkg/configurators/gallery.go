package configurators

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/droidseed/droidseed/pkg/device"
	"github.com/droidseed/droidseed/pkg/engine"
	"github.com/droidseed/droidseed/pkg/spec"
)

// Gallery configures the device photo gallery: images on shared storage
// registered through the media scanner.
type Gallery struct{}

func (c *Gallery) Domain() spec.Domain { return spec.DomainGallery }

func (c *Gallery) EnsureReady(ctx context.Context, dev device.Controller) error {
	return mkdirAll(ctx, dev, galleryDir)
}

func (c *Gallery) Run(ctx context.Context, dev device.Controller, ds spec.DomainSpec) *engine.DomainOutcome {
	s := ds.(*spec.GallerySpec)
	o := engine.NewOutcome(spec.DomainGallery)

	if s.ClearImages {
		if err := clearDir(ctx, dev, galleryDir); err != nil {
			o.RecordError("clear", -1, err)
		} else {
			o.Cleared = true
		}
	}

	for i, img := range s.AddImages {
		o.ItemsTotal++
		if err := c.addImage(ctx, dev, img); err != nil {
			o.RecordError("add_image", i, err)
			continue
		}
		o.ItemsWritten++
	}

	if o.ItemsWritten > 0 || o.Cleared {
		for _, dir := range []string{galleryDir, picturesDir} {
			if err := mediaScan(ctx, dev, dir); err != nil {
				o.RecordError("media_scan", -1, err)
			}
		}
	}

	o.Finalize()
	return o
}

// addImage writes one image, rendered from text or copied from a local
// source file.
func (c *Gallery) addImage(ctx context.Context, dev device.Controller, img spec.ImageRecord) error {
	dir := img.Path
	if dir == "" {
		dir = galleryDir
	}
	if err := mkdirAll(ctx, dev, dir); err != nil {
		return err
	}
	target := path.Join(dir, img.Filename)
	if _, err := dev.RunShell(ctx, "rm -f "+target); err != nil {
		return err
	}

	if img.Text != "" {
		data, err := renderTextImage(img.Text)
		if err != nil {
			return fmt.Errorf("render %s: %w", img.Filename, err)
		}
		return writeDeviceFile(ctx, dev, target, data)
	}

	if _, err := os.Stat(img.Src); err != nil {
		return fmt.Errorf("source image %s: %w", img.Src, err)
	}
	return dev.PushFile(ctx, img.Src, target)
}

// renderTextImage rasterizes the text into a white PNG, one line per input
// line.
func renderTextImage(text string) ([]byte, error) {
	face := basicfont.Face7x13
	lines := strings.Split(text, "\n")

	const margin = 10
	lineHeight := face.Height + 2
	width := 2 * margin
	for _, line := range lines {
		w := font.MeasureString(face, line).Ceil()
		if w+2*margin > width {
			width = w + 2*margin
		}
	}
	height := len(lines)*lineHeight + 2*margin

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(margin, margin+face.Ascent+i*lineHeight)
		drawer.DrawString(line)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
