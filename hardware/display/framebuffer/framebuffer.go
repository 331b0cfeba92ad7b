// Package framebuffer writes rectangles into Linux fbdev, e.g. fbtft ili9488 driver.
package framebuffer

import (
	"encoding/binary"
	"image"
	"image/color"
	"os"
	"unsafe"

	"github.com/juju/errors"
	"golang.org/x/sys/unix"
)

type Framebuffer struct {
	dev   *os.File
	enc   encoder
	row   []byte
	finfo fixedScreenInfo
	vinfo variableScreenInfo
}

type encoder struct {
	size int
	put  func(b []byte, c color.RGBA)
}

func New(dev string) (*Framebuffer, error) {
	devFile, err := os.OpenFile(dev, os.O_RDWR, os.ModeDevice)
	if err != nil {
		return nil, errors.Annotate(err, "open")
	}
	fb := &Framebuffer{dev: devFile}
	fd := int(fb.dev.Fd())

	if err = ioctl(fd, getFixedScreenInfo, unsafe.Pointer(&fb.finfo)); err != nil {
		fb.dev.Close()
		return nil, errors.Annotate(err, "getFixedScreenInfo")
	}
	if err = ioctl(fd, getVariableScreenInfo, unsafe.Pointer(&fb.vinfo)); err != nil {
		fb.dev.Close()
		return nil, errors.Annotate(err, "getVariableScreenInfo")
	}
	if fb.enc, err = pickEncoder(&fb.vinfo); err != nil {
		fb.dev.Close()
		return nil, errors.Annotatef(err, "bpp=%d", fb.vinfo.Bits_per_pixel)
	}
	if fb.finfo.Line_length == 0 {
		fb.finfo.Line_length = fb.vinfo.Xres * uint32(fb.enc.size)
	}
	return fb, nil
}

func (fb *Framebuffer) Close() error {
	return fb.dev.Close()
}

func (fb *Framebuffer) Size() image.Point {
	return image.Point{X: int(fb.vinfo.Xres), Y: int(fb.vinfo.Yres)}
}

// WriteRect encodes src pixels at sr and writes them to screen position dst, row by row.
func (fb *Framebuffer) WriteRect(dst image.Point, src *image.RGBA, sr image.Rectangle) error {
	target := image.Rectangle{Min: dst, Max: dst.Add(sr.Size())}.Intersect(image.Rectangle{Max: fb.Size()})
	if target.Empty() {
		return nil
	}
	sr.Min = sr.Min.Add(target.Min.Sub(dst))
	w := target.Dx()
	need := w * fb.enc.size
	if cap(fb.row) < need {
		fb.row = make([]byte, need)
	}
	row := fb.row[:need]
	for y := 0; y < target.Dy(); y++ {
		for x := 0; x < w; x++ {
			fb.enc.put(row[x*fb.enc.size:], src.RGBAAt(sr.Min.X+x, sr.Min.Y+y))
		}
		offset := int64(target.Min.Y+y)*int64(fb.finfo.Line_length) + int64(target.Min.X*fb.enc.size)
		if _, err := fb.dev.WriteAt(row, offset); err != nil {
			return errors.Annotatef(err, "write row=%d", target.Min.Y+y)
		}
	}
	return nil
}

// FillRect writes solid color into r.
func (fb *Framebuffer) FillRect(r image.Rectangle, c color.RGBA) error {
	r = r.Intersect(image.Rectangle{Max: fb.Size()})
	if r.Empty() {
		return nil
	}
	need := r.Dx() * fb.enc.size
	if cap(fb.row) < need {
		fb.row = make([]byte, need)
	}
	row := fb.row[:need]
	for x := 0; x < r.Dx(); x++ {
		fb.enc.put(row[x*fb.enc.size:], c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		offset := int64(y)*int64(fb.finfo.Line_length) + int64(r.Min.X*fb.enc.size)
		if _, err := fb.dev.WriteAt(row, offset); err != nil {
			return errors.Annotatef(err, "write row=%d", y)
		}
	}
	return nil
}

// Blank is FBIOBLANK, level is one of Blank* constants.
func (fb *Framebuffer) Blank(level int) error {
	if err := unix.IoctlSetInt(int(fb.dev.Fd()), blank, level); err != nil {
		return errors.Annotatef(err, "FBIOBLANK level=%d", level)
	}
	return nil
}

var rgb565 = variableScreenInfo{
	Red:   bitField{Offset: 11, Length: 5, Right: 0},
	Green: bitField{Offset: 5, Length: 6, Right: 0},
	Blue:  bitField{Offset: 0, Length: 5, Right: 0},
}

var xrgb8888 = variableScreenInfo{
	Red:   bitField{Offset: 16, Length: 8, Right: 0},
	Green: bitField{Offset: 8, Length: 8, Right: 0},
	Blue:  bitField{Offset: 0, Length: 8, Right: 0},
}

func pickEncoder(v *variableScreenInfo) (encoder, error) {
	switch {
	case v.Bits_per_pixel == 16 && v.Red == rgb565.Red && v.Green == rgb565.Green && v.Blue == rgb565.Blue:
		return encoder{size: 2, put: func(b []byte, c color.RGBA) {
			binary.LittleEndian.PutUint16(b, encode565(c))
		}}, nil
	case v.Bits_per_pixel == 32 && v.Red == xrgb8888.Red && v.Green == xrgb8888.Green && v.Blue == xrgb8888.Blue:
		return encoder{size: 4, put: func(b []byte, c color.RGBA) {
			binary.LittleEndian.PutUint32(b, encode8888(c))
		}}, nil
	}
	return encoder{}, errors.NotSupportedf("color model")
}

func encode565(c color.RGBA) uint16 {
	return (uint16(c.R) & 0xf8 << 8) | (uint16(c.G) & 0xfc << 3) | (uint16(c.B) & 0xf8 >> 3)
}

func encode8888(c color.RGBA) uint32 {
	return 0xff000000 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

func ioctl(fd int, cmd uint, data unsafe.Pointer) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(cmd), uintptr(data)); errno != 0 {
		return os.NewSyscallError("ioctl", errno)
	}
	return nil
}
