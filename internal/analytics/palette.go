package analytics

// Palette is an ordered list of chart color tokens. Colors are picked by
// rank modulo the palette length so the same category keeps the same color
// across runs.
type Palette []string

// DefaultPalette is used when no palette is configured
var DefaultPalette = Palette{
	"#FF6384", "#36A2EB", "#FFCE56", "#4BC0C0",
	"#9966FF", "#FF9F40", "#8AC24A", "#FF5722",
	"#607D8B", "#9C27B0", "#00BCD4", "#9CCC65",
	"#AB47BC", "#6A5ACD", "#E91E63", "#3F51B5",
}

// Index maps a rank onto the palette
func (p Palette) Index(rank int) int {
	if len(p) == 0 {
		return 0
	}
	return rank % len(p)
}

// Color returns the color token for a rank, or "" for an empty palette
func (p Palette) Color(rank int) string {
	if len(p) == 0 {
		return ""
	}
	return p[p.Index(rank)]
}
