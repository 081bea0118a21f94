package geometry

import (
	"fmt"
	"log"
)

// ShapeError reports a rank or shape mismatch in a crop, pad or resize
// operation. Shape errors are raised immediately at the boundary of the
// offending operation; no silent coercion is attempted.
type ShapeError struct {
	Msg string
}

func (e *ShapeError) Error() string {
	return e.Msg
}

func shapeErrorf(format string, args ...interface{}) *ShapeError {
	return &ShapeError{Msg: fmt.Sprintf(format, args...)}
}

// PadMode selects how values outside the source array are synthesized
// when padding.
type PadMode int

const (
	// PadConstant fills with a constant value
	PadConstant PadMode = iota

	// PadEdge repeats the nearest edge value
	PadEdge

	// PadReflect mirrors the array about its edge without repeating the
	// edge sample itself
	PadReflect
)

// Fill configures the padding primitive used by PadToShape and
// ResizeWithCropOrPad.
type Fill struct {
	Mode  PadMode
	Value float64
}

// CropToShape crops an image to a new shape around its center. For each axis
// the center index is c = N/2 and the retained band is
// [c - h/2, c + h/2 + h%2), so odd crops of odd images are exact inverses of
// symmetric pads.
func CropToShape(im Image, height, width int) (Image, error) {
	if height <= 0 || width <= 0 || height > im.Height || width > im.Width {
		return Image{}, shapeErrorf(
			"cannot crop image of shape (%d, %d) to shape (%d, %d)",
			im.Height, im.Width, height, width)
	}
	yc, xc := im.Height/2, im.Width/2
	y0, x0 := yc-height/2, xc-width/2
	out := NewImage(height, width)
	for y := 0; y < height; y++ {
		srcRow := (y0 + y) * im.Width
		copy(out.Data[y*width:(y+1)*width], im.Data[srcRow+x0:srcRow+x0+width])
	}
	return out, nil
}

// CropVolumeToShape crops a volume to a new shape around its center, using
// the same per-axis semantics as CropToShape.
func CropVolumeToShape(vol Volume, depth, height, width int) (Volume, error) {
	if depth <= 0 || height <= 0 || width <= 0 ||
		depth > vol.Depth || height > vol.Height || width > vol.Width {
		return Volume{}, shapeErrorf(
			"cannot crop volume of shape (%d, %d, %d) to shape (%d, %d, %d)",
			vol.Depth, vol.Height, vol.Width, depth, height, width)
	}
	zc, yc, xc := vol.Depth/2, vol.Height/2, vol.Width/2
	z0, y0, x0 := zc-depth/2, yc-height/2, xc-width/2
	out := NewVolume(depth, height, width)
	for z := 0; z < depth; z++ {
		for y := 0; y < height; y++ {
			srcRow := ((z0+z)*vol.Height + y0 + y) * vol.Width
			dstRow := (z*height + y) * width
			copy(out.Data[dstRow:dstRow+width], vol.Data[srcRow+x0:srcRow+x0+width])
		}
	}
	return out, nil
}

// CropToShapeWithCenter crops an image to a new shape around a caller
// supplied center. Slice bounds are clamped to the image interior; when the
// clamped crop falls short of the requested shape (center too near an edge),
// a warning is logged and the best-effort clipped result is returned rather
// than an error.
func CropToShapeWithCenter(im Image, height, width, centerY, centerX int) (Image, error) {
	if height <= 0 || width <= 0 {
		return Image{}, shapeErrorf(
			"cannot crop image to shape (%d, %d)", height, width)
	}
	y0 := max(centerY-height/2, 0)
	x0 := max(centerX-width/2, 0)
	y1 := min(centerY+height/2+height%2, im.Height-1)
	x1 := min(centerX+width/2+width%2, im.Width-1)
	if y1 <= y0 || x1 <= x0 {
		return Image{}, shapeErrorf(
			"crop centered at (%d, %d) lies outside image of shape (%d, %d)",
			centerY, centerX, im.Height, im.Width)
	}
	out := NewImage(y1-y0, x1-x0)
	for y := y0; y < y1; y++ {
		srcRow := y * im.Width
		copy(out.Data[(y-y0)*out.Width:(y-y0+1)*out.Width], im.Data[srcRow+x0:srcRow+x1])
	}
	if out.Height != height || out.Width != width {
		log.Printf("Warning: crop centered at (%d, %d) was clipped to shape (%d, %d), requested (%d, %d)",
			centerY, centerX, out.Height, out.Width, height, width)
	}
	return out, nil
}

// PadToShape pads an image to a new shape. The padding for each axis is
// split as (pad/2, pad/2 + pad%2), so the extra unit of an odd pad goes to
// the high side of the axis.
func PadToShape(im Image, height, width int, fill Fill) (Image, error) {
	if height < im.Height || width < im.Width {
		return Image{}, shapeErrorf(
			"cannot pad image of shape (%d, %d) to smaller shape (%d, %d)",
			im.Height, im.Width, height, width)
	}
	loY := (height - im.Height) / 2
	loX := (width - im.Width) / 2
	out := NewImage(height, width)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out.Data[y*width+x] = padSample2D(im, y-loY, x-loX, fill)
		}
	}
	return out, nil
}

// PadVolumeToShape pads a volume to a new shape with the same per-axis split
// as PadToShape.
func PadVolumeToShape(vol Volume, depth, height, width int, fill Fill) (Volume, error) {
	if depth < vol.Depth || height < vol.Height || width < vol.Width {
		return Volume{}, shapeErrorf(
			"cannot pad volume of shape (%d, %d, %d) to smaller shape (%d, %d, %d)",
			vol.Depth, vol.Height, vol.Width, depth, height, width)
	}
	loZ := (depth - vol.Depth) / 2
	loY := (height - vol.Height) / 2
	loX := (width - vol.Width) / 2
	out := NewVolume(depth, height, width)
	for z := 0; z < depth; z++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				out.Data[(z*height+y)*width+x] = padSample3D(vol, z-loZ, y-loY, x-loX, fill)
			}
		}
	}
	return out, nil
}

// ResizeWithCropOrPad resizes an image to a new shape using cropping and
// padding. When one axis shrinks while the other grows, the shrinking axis is
// cropped first and the growing axis padded second. The ordering matters:
// padding first would synthesize content that the crop then discards.
func ResizeWithCropOrPad(im Image, height, width int, fill Fill) (Image, error) {
	switch {
	case im.Height >= height && im.Width >= width:
		return CropToShape(im, height, width)
	case im.Height <= height && im.Width <= width:
		return PadToShape(im, height, width, fill)
	case im.Height <= height && im.Width >= width:
		cropped, err := CropToShape(im, im.Height, width)
		if err != nil {
			return Image{}, err
		}
		return PadToShape(cropped, height, width, fill)
	default:
		cropped, err := CropToShape(im, height, im.Width)
		if err != nil {
			return Image{}, err
		}
		return PadToShape(cropped, height, width, fill)
	}
}

// padSample2D reads the source image at a possibly out-of-range position,
// synthesizing the value according to the fill mode.
func padSample2D(im Image, y, x int, fill Fill) float64 {
	if y >= 0 && y < im.Height && x >= 0 && x < im.Width {
		return im.Data[y*im.Width+x]
	}
	switch fill.Mode {
	case PadEdge:
		return im.Data[clampIndex(y, im.Height)*im.Width+clampIndex(x, im.Width)]
	case PadReflect:
		return im.Data[reflectIndex(y, im.Height)*im.Width+reflectIndex(x, im.Width)]
	default:
		return fill.Value
	}
}

func padSample3D(vol Volume, z, y, x int, fill Fill) float64 {
	if z >= 0 && z < vol.Depth && y >= 0 && y < vol.Height && x >= 0 && x < vol.Width {
		return vol.Data[(z*vol.Height+y)*vol.Width+x]
	}
	switch fill.Mode {
	case PadEdge:
		return vol.Data[(clampIndex(z, vol.Depth)*vol.Height+clampIndex(y, vol.Height))*vol.Width+
			clampIndex(x, vol.Width)]
	case PadReflect:
		return vol.Data[(reflectIndex(z, vol.Depth)*vol.Height+reflectIndex(y, vol.Height))*vol.Width+
			reflectIndex(x, vol.Width)]
	default:
		return fill.Value
	}
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// reflectIndex mirrors an out-of-range index about the array edges without
// repeating the edge sample, with period 2(n-1).
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * (n - 1)
	i = ((i % period) + period) % period
	if i >= n {
		i = period - i
	}
	return i
}
