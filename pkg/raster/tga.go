package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

var errTGATruncated = errors.New("tga data truncated")

const tgaHeaderSize = 18

// TGA image types.
const (
	tgaTrueColor    = 2
	tgaGray         = 3
	tgaTrueColorRLE = 10
	tgaGrayRLE      = 11
)

// DecodeTGA decodes an uncompressed or RLE TGA image.
// True-color (24/32 bpp) and grayscale (8 bpp) images are supported.
func DecodeTGA(data []byte) (image.Image, error) {
	if len(data) < tgaHeaderSize {
		return nil, errTGATruncated
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	topToBottom := data[17]&0x20 != 0

	if colorMapType != 0 {
		return nil, fmt.Errorf("%w: color-mapped tga", ErrUnsupportedFormat)
	}
	gray := imageType == tgaGray || imageType == tgaGrayRLE
	rle := imageType == tgaTrueColorRLE || imageType == tgaGrayRLE
	switch {
	case imageType != tgaTrueColor && imageType != tgaTrueColorRLE && !gray:
		return nil, fmt.Errorf("%w: tga type %d", ErrUnsupportedFormat, imageType)
	case gray && bpp != 8:
		return nil, fmt.Errorf("%w: grayscale tga with %d bpp", ErrUnsupportedFormat, bpp)
	case !gray && bpp != 24 && bpp != 32:
		return nil, fmt.Errorf("%w: tga with %d bpp", ErrUnsupportedFormat, bpp)
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: tga size %dx%d", ErrInvalidRaster, width, height)
	}

	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, errTGATruncated
	}

	d := &tgaDecoder{
		src:         data[offset:],
		stride:      bpp / 8,
		img:         image.NewNRGBA(image.Rect(0, 0, width, height)),
		width:       width,
		height:      height,
		topToBottom: topToBottom,
	}
	var err error
	if rle {
		err = d.readRLE()
	} else {
		err = d.readRaw()
	}
	if err != nil {
		return nil, err
	}
	return d.img, nil
}

type tgaDecoder struct {
	src         []byte
	pos         int
	stride      int
	img         *image.NRGBA
	width       int
	height      int
	topToBottom bool
	written     int
}

// pixel reads one BGR(A) or gray pixel from the source stream.
func (d *tgaDecoder) pixel() (color.NRGBA, error) {
	if d.pos+d.stride > len(d.src) {
		return color.NRGBA{}, errTGATruncated
	}
	p := d.src[d.pos : d.pos+d.stride]
	d.pos += d.stride

	if d.stride == 1 {
		return color.NRGBA{R: p[0], G: p[0], B: p[0], A: 255}, nil
	}
	c := color.NRGBA{R: p[2], G: p[1], B: p[0], A: 255}
	if d.stride == 4 {
		c.A = p[3]
	}
	return c, nil
}

// put stores c at the next pixel in file order, flipping rows unless the
// image is stored top-to-bottom.
func (d *tgaDecoder) put(c color.NRGBA) {
	x := d.written % d.width
	y := d.written / d.width
	if !d.topToBottom {
		y = d.height - 1 - y
	}
	d.img.SetNRGBA(x, y, c)
	d.written++
}

func (d *tgaDecoder) total() int {
	return d.width * d.height
}

func (d *tgaDecoder) readRaw() error {
	for d.written < d.total() {
		c, err := d.pixel()
		if err != nil {
			return err
		}
		d.put(c)
	}
	return nil
}

func (d *tgaDecoder) readRLE() error {
	for d.written < d.total() {
		if d.pos >= len(d.src) {
			return errTGATruncated
		}
		header := d.src[d.pos]
		d.pos++
		count := int(header&0x7F) + 1

		if header&0x80 != 0 {
			c, err := d.pixel()
			if err != nil {
				return err
			}
			for i := 0; i < count && d.written < d.total(); i++ {
				d.put(c)
			}
			continue
		}
		for i := 0; i < count && d.written < d.total(); i++ {
			c, err := d.pixel()
			if err != nil {
				return err
			}
			d.put(c)
		}
	}
	return nil
}
