package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
)

const (
	iconSize    = 22
	iconPadding = 4
	levelIcons  = 6
)

var (
	iconReady        []byte
	iconTranscribing []byte
	iconError        []byte
	iconRecording    [levelIcons][]byte
)

func init() {
	gray := color.RGBA{R: 100, G: 100, B: 100, A: 255}
	blue := color.RGBA{R: 30, G: 136, B: 229, A: 255}
	iconReady = renderDot(iconSize, gray, iconPadding)
	iconTranscribing = renderDot(iconSize, blue, iconPadding)
	iconError = renderWarn(iconSize, gray, iconPadding)
	for i := range levelIcons {
		c, pad := recordingStyle(i)
		iconRecording[i] = renderDot(iconSize, c, pad)
	}
}

// IconIndex maps a level in [0,1] to one of the recording icons.
func IconIndex(level float64) int {
	return max(0, min(levelIcons-1, int(level*levelIcons)))
}

// recordingStyle goes red to yellow and grows the dot as the level rises.
func recordingStyle(i int) (color.RGBA, float64) {
	level := float64(i) / float64(levelIcons-1)
	c := color.RGBA{
		R: 229,
		G: uint8(57 + level*198),
		B: uint8(53 - level*53),
		A: 255,
	}
	return c, float64(int(iconPadding - level*2))
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic("encodePNG: " + err.Error())
	}
	return buf.Bytes()
}

func drawDot(img *image.RGBA, size int, c color.RGBA, padding float64) {
	cx, cy := float64(size)/2, float64(size)/2
	r := float64(size)/2 - padding
	for y := range size {
		for x := range size {
			if math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy) <= r {
				img.Set(x, y, c)
			}
		}
	}
}

func renderDot(size int, c color.RGBA, padding float64) []byte {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	drawDot(img, size, c, padding)
	return encodePNG(img)
}

// renderWarn draws the dot with a yellow "!" badge in the bottom-right corner.
func renderWarn(size int, c color.RGBA, padding float64) []byte {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	drawDot(img, size, c, padding)

	s := float64(size)
	badgeR := s * 0.34
	badgeCX, badgeCY := s-badgeR+0.5, s-badgeR+0.5
	dark := color.RGBA{R: 40, G: 40, B: 40, A: 255}
	yellow := color.RGBA{R: 255, G: 204, B: 0, A: 255}
	bangHW := badgeR * 0.24

	for y := range size {
		for x := range size {
			fx, fy := float64(x)+0.5, float64(y)+0.5
			if math.Hypot(fx-badgeCX, fy-badgeCY) > badgeR {
				continue
			}
			localY := (fy - (badgeCY - badgeR*0.7)) / (badgeR * 1.4)
			localX := math.Abs(fx - badgeCX)
			isBar := localX <= bangHW && localY >= 0.1 && localY <= 0.62
			isDot := localX <= bangHW && localY >= 0.72 && localY <= 0.85
			if isBar || isDot {
				img.Set(x, y, dark)
			} else {
				img.Set(x, y, yellow)
			}
		}
	}
	return encodePNG(img)
}
