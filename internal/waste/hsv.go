package waste

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// HSV uses the 8-bit convention: H in [0,180], S and V in [0,255].
type HSV struct {
	H, S, V uint8
}

// FoodBand is an inclusive HSV range selecting pixels treated as food.
type FoodBand struct {
	Lower, Upper HSV
}

// DefaultFoodBand keeps anything with a little colour and brightness, which
// drops near-white plates and near-black backgrounds.
var DefaultFoodBand = FoodBand{
	Lower: HSV{H: 0, S: 20, V: 20},
	Upper: HSV{H: 180, S: 255, V: 255},
}

// Validate rejects bands whose bounds are inverted or whose hue exceeds 180.
func (b FoodBand) Validate() error {
	if b.Upper.H > 180 {
		return fmt.Errorf("hue upper bound %d exceeds 180", b.Upper.H)
	}
	if b.Lower.H > b.Upper.H || b.Lower.S > b.Upper.S || b.Lower.V > b.Upper.V {
		return fmt.Errorf("lower bound %v exceeds upper bound %v", b.Lower, b.Upper)
	}
	return nil
}

func (b FoodBand) Contains(p HSV) bool {
	return p.H >= b.Lower.H && p.H <= b.Upper.H &&
		p.S >= b.Lower.S && p.S <= b.Upper.S &&
		p.V >= b.Lower.V && p.V <= b.Upper.V
}

// ToHSV converts 8-bit RGB to HSV with hue halved to fit a byte.
func ToHSV(r, g, b uint8) HSV {
	maxC := max(r, g, b)
	minC := min(r, g, b)
	v := float64(maxC)
	diff := float64(maxC) - float64(minC)

	var s float64
	if maxC != 0 {
		s = diff * 255 / v
	}

	var h float64
	if diff != 0 {
		switch maxC {
		case r:
			h = 60 * (float64(g) - float64(b)) / diff
		case g:
			h = 120 + 60*(float64(b)-float64(r))/diff
		default:
			h = 240 + 60*(float64(r)-float64(g))/diff
		}
		if h < 0 {
			h += 360
		}
	}

	return HSV{
		H: uint8(math.Min(180, math.Round(h/2))),
		S: uint8(math.Round(s)),
		V: maxC,
	}
}

// FoodArea counts the pixels of img that fall inside band.
func FoodArea(img image.Image, band FoodBand) int {
	bounds := img.Bounds()
	area := 0

	switch src := img.(type) {
	case *image.NRGBA:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			row := src.Pix[src.PixOffset(bounds.Min.X, y):]
			for x := 0; x < bounds.Dx(); x++ {
				i := x * 4
				if band.Contains(ToHSV(row[i], row[i+1], row[i+2])) {
					area++
				}
			}
		}
	case *image.YCbCr:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				yi := src.YOffset(x, y)
				ci := src.COffset(x, y)
				r, g, b := color.YCbCrToRGB(src.Y[yi], src.Cb[ci], src.Cr[ci])
				if band.Contains(ToHSV(r, g, b)) {
					area++
				}
			}
		}
	default:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				if band.Contains(ToHSV(c.R, c.G, c.B)) {
					area++
				}
			}
		}
	}

	return area
}
