package radiator

// Palette holds the tile colors for each status class.
type Palette struct {
	OkBG     string
	OkFG     string
	FailedBG string
	FailedFG string
	BrokenBG string
	BrokenFG string
	OtherBG  string
	OtherFG  string
}

var DefaultPalette = Palette{
	OkBG:     "#88ff88",
	OkFG:     "black",
	FailedBG: "yellow",
	FailedFG: "black",
	BrokenBG: "red",
	BrokenFG: "white",
	OtherBG:  "#CCCCCC",
	OtherFG:  "#FFFFFF",
}

// WithDefaults fills unset colors from DefaultPalette.
func (p Palette) WithDefaults() Palette {
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&p.OkBG, DefaultPalette.OkBG)
	fill(&p.OkFG, DefaultPalette.OkFG)
	fill(&p.FailedBG, DefaultPalette.FailedBG)
	fill(&p.FailedFG, DefaultPalette.FailedFG)
	fill(&p.BrokenBG, DefaultPalette.BrokenBG)
	fill(&p.BrokenFG, DefaultPalette.BrokenFG)
	fill(&p.OtherBG, DefaultPalette.OtherBG)
	fill(&p.OtherFG, DefaultPalette.OtherFG)
	return p
}

const (
	diffColorNegative = "#FF0000"
	diffColorPositive = "#00FF00"
	diffColorNeutral  = "#FFFFFF"

	groupColorPassing = "green"
	groupColorClaimed = "orange"
	groupColorFailing = "red"
	groupColorText    = "white"
)
