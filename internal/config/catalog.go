package config

import (
	"fmt"
	"os"

	"github.com/anishka-v/eco-dining/internal/dish"
	"github.com/anishka-v/eco-dining/internal/impact"
	"github.com/anishka-v/eco-dining/internal/waste"

	"gopkg.in/yaml.v3"
)

// Catalog is the per-deployment menu: which dishes can be recognised, the
// standard portion, the waste scale and the HSV band counted as food.
//
//	dishes: [Pizza, Pasta, Soup]
//	portion_oz: 8
//	food_band: {lower: [0, 20, 20], upper: [180, 255, 255]}
//	waste_scale:
//	  - {upper: 0.0, level: None}
//	  - {upper: 1.0, level: Most Left}
type Catalog struct {
	Dishes     []string    `yaml:"dishes"`
	PortionOz  float64     `yaml:"portion_oz"`
	WasteScale []ScaleBand `yaml:"waste_scale"`
	FoodBand   *BandSpec   `yaml:"food_band"`

	vocab dish.Vocabulary
	scale waste.Scale
	band  waste.FoodBand
}

// BandSpec holds HSV triples with hue in [0,180] and S, V in [0,255].
type BandSpec struct {
	Lower [3]uint8 `yaml:"lower"`
	Upper [3]uint8 `yaml:"upper"`
}

type ScaleBand struct {
	Upper float64 `yaml:"upper"`
	Level string  `yaml:"level"`
}

func DefaultCatalog() *Catalog {
	c := &Catalog{
		Dishes:    dish.DefaultVocabulary().Names(),
		PortionOz: impact.DefaultPortionOz,
		vocab:     dish.DefaultVocabulary(),
		scale:     waste.DefaultScale(),
		band:      waste.DefaultFoodBand,
	}
	for _, b := range c.scale.Bands() {
		c.WasteScale = append(c.WasteScale, ScaleBand{Upper: b.UpperBound, Level: string(b.Level)})
	}
	return c
}

// LoadCatalog reads a YAML catalog. Omitted sections keep their defaults.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var raw Catalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := DefaultCatalog()

	if len(raw.Dishes) > 0 {
		vocab, err := dish.NewVocabulary(raw.Dishes)
		if err != nil {
			return nil, fmt.Errorf("catalog dishes: %w", err)
		}
		c.Dishes = vocab.Names()
		c.vocab = vocab
	}

	if raw.PortionOz < 0 {
		return nil, fmt.Errorf("catalog portion_oz must not be negative, got %v", raw.PortionOz)
	}
	if raw.PortionOz > 0 {
		c.PortionOz = raw.PortionOz
	}

	if len(raw.WasteScale) > 0 {
		bands := make([]waste.Band, len(raw.WasteScale))
		for i, b := range raw.WasteScale {
			bands[i] = waste.Band{UpperBound: b.Upper, Level: waste.Level(b.Level)}
		}
		scale, err := waste.NewScale(bands)
		if err != nil {
			return nil, fmt.Errorf("catalog waste_scale: %w", err)
		}
		c.WasteScale = raw.WasteScale
		c.scale = scale
	}

	if raw.FoodBand != nil {
		band := waste.FoodBand{
			Lower: waste.HSV{H: raw.FoodBand.Lower[0], S: raw.FoodBand.Lower[1], V: raw.FoodBand.Lower[2]},
			Upper: waste.HSV{H: raw.FoodBand.Upper[0], S: raw.FoodBand.Upper[1], V: raw.FoodBand.Upper[2]},
		}
		if err := band.Validate(); err != nil {
			return nil, fmt.Errorf("catalog food_band: %w", err)
		}
		c.FoodBand = raw.FoodBand
		c.band = band
	}

	return c, nil
}

func (c *Catalog) Band() waste.FoodBand {
	return c.band
}

func (c *Catalog) Vocabulary() dish.Vocabulary {
	return c.vocab
}

func (c *Catalog) Scale() waste.Scale {
	return c.scale
}
