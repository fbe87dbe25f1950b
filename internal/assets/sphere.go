package assets

import "math"

// Sphere builds a UV sphere viewed from the inside: x is mirrored and
// normals point at the centre, so an equirectangular texture reads
// correctly from within. UVs are multiplied by repeat.
func Sphere(radius float32, widthSegments, heightSegments int, repeat float32) Mesh {
	if widthSegments < 3 {
		widthSegments = 3
	}
	if heightSegments < 2 {
		heightSegments = 2
	}
	if repeat == 0 {
		repeat = 1
	}

	var m Mesh
	m.BaseColor = [4]float32{1, 1, 1, 1}
	grid := make([][]uint32, heightSegments+1)
	var idx uint32
	for iy := 0; iy <= heightSegments; iy++ {
		v := float64(iy) / float64(heightSegments)
		row := make([]uint32, widthSegments+1)
		for ix := 0; ix <= widthSegments; ix++ {
			u := float64(ix) / float64(widthSegments)
			nx := -math.Cos(u*2*math.Pi) * math.Sin(v*math.Pi)
			ny := math.Cos(v * math.Pi)
			nz := math.Sin(u*2*math.Pi) * math.Sin(v*math.Pi)

			m.Positions = append(m.Positions, -radius*float32(nx), radius*float32(ny), radius*float32(nz))
			m.Normals = append(m.Normals, float32(nx), -float32(ny), -float32(nz))
			m.UVs = append(m.UVs, float32(u)*repeat, float32(1-v)*repeat)
			row[ix] = idx
			idx++
		}
		grid[iy] = row
	}

	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a := grid[iy][ix+1]
			b := grid[iy][ix]
			c := grid[iy+1][ix]
			d := grid[iy+1][ix+1]
			// mirrored x makes these wind counter-clockwise seen from inside
			if iy != 0 {
				m.Indices = append(m.Indices, a, b, d)
			}
			if iy != heightSegments-1 {
				m.Indices = append(m.Indices, b, c, d)
			}
		}
	}
	return m
}
