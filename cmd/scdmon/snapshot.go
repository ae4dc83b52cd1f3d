// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"time"

	"github.com/GermanBionicSystems/scd/sensirion"
	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
	"periph.io/x/conn/v3/physic"
)

// Snapshot renders readings as a black and white card sized for small
// e-paper panels and saves it as PNG.
type Snapshot struct {
	path string
	w, h int
}

func NewSnapshot(cfg SnapshotConfig) *Snapshot {
	return &Snapshot{path: cfg.Path, w: cfg.Width, h: cfg.Height}
}

// Render draws m taken at t.
func (s *Snapshot) Render(m *sensirion.Measurement, t time.Time) image.Image {
	dc := gg.NewContext(s.w, s.h)
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetColor(color.Black)
	dc.SetFontFace(basicfont.Face7x13)

	const margin = 6
	dc.DrawString(fmt.Sprintf("CO2  %d ppm", m.CO2), margin, 18)
	dc.DrawString(fmt.Sprintf("T    %.1f C", m.Temperature.Celsius()), margin, 36)
	dc.DrawString(fmt.Sprintf("RH   %.1f %%", float64(m.Humidity)/float64(physic.PercentRH)), margin, 54)

	// CO2 gauge.
	gw := float64(s.w - 2*margin)
	gy := float64(s.h - 30)
	dc.SetLineWidth(1)
	dc.DrawRectangle(margin, gy, gw, 10)
	dc.Stroke()
	fill := gw * float64(m.CO2) / barFullScale
	if fill > gw {
		fill = gw
	}
	dc.DrawRectangle(margin, gy, fill, 10)
	dc.Fill()

	dc.DrawStringAnchored(t.Format("15:04:05"), float64(s.w-margin), float64(s.h-margin), 1, 0)
	return dc.Image()
}

// Save renders m and replaces the PNG file.
func (s *Snapshot) Save(m *sensirion.Measurement, t time.Time) error {
	tmp := s.path + ".tmp"
	if err := gg.SavePNG(tmp, s.Render(m, t)); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return nil
}
