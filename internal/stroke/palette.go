package stroke

// Colors and Radii are indexed by Stamp.Color and Stamp.Radius. Their order is
// part of the wire contract.
var Colors = [...]string{
	"black", "white", "grey", "red", "orange", "yellow", "lime",
	"darkgreen", "cyan", "blue", "purple", "pink", "brown",
}

var Radii = [...]float64{4, 6, 8, 12, 16, 20}

// ColorName maps a palette index to a color, falling back to the first entry.
func ColorName(i uint8) string {
	if int(i) >= len(Colors) {
		return Colors[0]
	}
	return Colors[i]
}

func RadiusPx(i uint8) float64 {
	if int(i) >= len(Radii) {
		return Radii[0]
	}
	return Radii[i]
}
