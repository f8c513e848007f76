package geo

import "github.com/mmcloughlin/geohash"

// DefaultPrecision is the geohash length used for spatial indexing.
// Seven characters give cells of roughly 150m, tight enough that a cell
// plus its eight neighbors covers any 2km pickup radius candidate set.
const DefaultPrecision = 7

// Encode returns the geohash cell key for a coordinate at the given
// precision. Keys at a lower precision are prefixes of keys at a higher
// precision for the same point.
func Encode(c Coordinate, precision uint) string {
	return geohash.EncodeWithPrecision(c.Latitude, c.Longitude, precision)
}

// Neighbors returns the cell itself plus its eight surrounding cells.
// Cells at the poles have fewer distinct neighbors; duplicates are removed.
func Neighbors(key string) []string {
	cells := []string{key}

	adjacent := safeNeighbors(key)
	seen := map[string]bool{key: true}
	for _, n := range adjacent {
		if n != "" && !seen[n] {
			seen[n] = true
			cells = append(cells, n)
		}
	}
	return cells
}

// safeNeighbors shields callers from panics on degenerate keys, falling
// back to an empty set so the search still covers the original cell.
func safeNeighbors(key string) (result []string) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
		}
	}()
	return geohash.Neighbors(key)
}

// CoverageKeys encodes a coordinate and expands it to the set of cell keys
// a spatial search must scan to avoid boundary misses.
func CoverageKeys(c Coordinate, precision uint) []string {
	return Neighbors(Encode(c, precision))
}
