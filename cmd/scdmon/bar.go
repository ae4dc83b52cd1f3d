// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/GermanBionicSystems/scd/sensirion"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
)

// barFullScale is the CO2 concentration filling the whole bar.
const barFullScale = 2500

// co2Band is the color of the bar up to max PPM.
type co2Band struct {
	max sensirion.PPM
	c   color.NRGBA
}

var co2Bands = []co2Band{
	{800, color.NRGBA{0x00, 0xc0, 0x00, 0xff}},
	{1200, color.NRGBA{0xe0, 0xe0, 0x00, 0xff}},
	{2000, color.NRGBA{0xff, 0x80, 0x00, 0xff}},
	{0xffff, color.NRGBA{0xff, 0x00, 0x00, 0xff}},
}

var barEmpty = color.NRGBA{0x30, 0x30, 0x30, 0xff}

func bandColor(ppm sensirion.PPM) color.NRGBA {
	for _, b := range co2Bands {
		if ppm <= b.max {
			return b.c
		}
	}
	return co2Bands[len(co2Bands)-1].c
}

// Bar draws a CO2 reading as a one line colored bar on an ANSI terminal.
type Bar struct {
	w       io.Writer
	l       int
	palette ansi256.Palette

	pixels []byte
	label  string
	buf    bytes.Buffer
}

// NewBar returns a Bar of width cells writing to stdout.
func NewBar(width int) *Bar {
	return newBar(colorable.NewColorableStdout(), width)
}

func newBar(w io.Writer, width int) *Bar {
	return &Bar{
		w:       w,
		l:       width,
		palette: *ansi256.Default,
		pixels:  make([]byte, 3*width),
	}
}

func (b *Bar) String() string {
	return "CO2Bar"
}

// Show renders m. The filled length is proportional to CO2 and its color
// follows the air quality band.
func (b *Bar) Show(m *sensirion.Measurement) error {
	img := image.NewNRGBA(b.Bounds())
	filled := int(m.CO2) * b.l / barFullScale
	if filled > b.l {
		filled = b.l
	}
	c := bandColor(m.CO2)
	for x := 0; x < b.l; x++ {
		if x < filled {
			img.SetNRGBA(x, 0, c)
		} else {
			img.SetNRGBA(x, 0, barEmpty)
		}
	}
	b.label = fmt.Sprintf("%5d PPM %6.2f°C %5.1f%%rH", m.CO2, m.Temperature.Celsius(), float64(m.Humidity)/float64(physic.PercentRH))
	return b.Draw(img.Bounds(), img, image.Point{})
}

// Halt implements conn.Resource.
//
// It moves to the next line and resets the colors.
func (b *Bar) Halt() error {
	_, err := b.w.Write([]byte("\n\033[0m"))
	return err
}

// ColorModel implements display.Drawer.
func (b *Bar) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements display.Drawer.
func (b *Bar) Bounds() image.Rectangle {
	return image.Rectangle{Max: image.Point{X: b.l, Y: 1}}
}

// Draw implements display.Drawer.
func (b *Bar) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(b.Bounds())
	srcR := src.Bounds()
	srcR.Min = srcR.Min.Add(sp)
	if dX := r.Dx(); dX < srcR.Dx() {
		srcR.Max.X = srcR.Min.X + dX
	}
	deltaX3 := 3 * (r.Min.X - srcR.Min.X)
	for sX := srcR.Min.X; sX < srcR.Max.X; sX++ {
		r16, g16, b16, _ := src.At(sX, srcR.Min.Y).RGBA()
		dX3 := 3*sX + deltaX3
		b.pixels[dX3] = byte(r16 >> 8)
		b.pixels[dX3+1] = byte(g16 >> 8)
		b.pixels[dX3+2] = byte(b16 >> 8)
	}
	return b.refresh()
}

func (b *Bar) refresh() error {
	b.buf.Reset()
	_, _ = b.buf.WriteString("\r\033[0m")
	for i := 0; i < len(b.pixels)/3; i++ {
		c := color.NRGBA{b.pixels[3*i], b.pixels[3*i+1], b.pixels[3*i+2], 255}
		_, _ = io.WriteString(&b.buf, b.palette.Block(c))
	}
	_, _ = b.buf.WriteString("\033[0m ")
	_, _ = b.buf.WriteString(b.label)
	_, err := b.buf.WriteTo(b.w)
	return err
}

var _ display.Drawer = &Bar{}
