package presets

import (
	"bytes"
	"fmt"

	"scene-editor/internal/asset"
)

// Stand-in byte generation. Nothing here aims for visual quality; the
// output only has to be a well-formed file of the right kind so the
// rest of the pipeline treats a placeholder like any cached asset.

func build(d Def) Preset {
	p := Preset{Def: d}
	switch d.Kind {
	case asset.KindMesh:
		p.Data = cubeOBJ(d.Size)
		p.ContentType = "model/obj"
		p.FileName = d.Name + ".obj"
	case asset.KindTexture, asset.KindSky:
		p.Data = checkerPPM(d.Color)
		p.ContentType = "image/x-portable-pixmap"
		p.FileName = d.Name + ".ppm"
	case asset.KindMaterial:
		p.Data = []byte(fmt.Sprintf("{\n\t\"name\": %q,\n\t\"color\": %q\n}\n", d.Name, d.Color))
		p.ContentType = "application/json"
		p.FileName = d.Name + ".json"
	default:
		p.Data = []byte(d.Name)
		p.ContentType = "application/octet-stream"
		p.FileName = d.Name + ".bin"
	}
	return p
}

// cubeOBJ emits a unit cube scaled by size as Wavefront OBJ text.
func cubeOBJ(size [3]float32) []byte {
	sx, sy, sz := size[0], size[1], size[2]
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	if sz == 0 {
		sz = 1
	}
	hx, hy, hz := sx/2, sy/2, sz/2
	var b bytes.Buffer
	b.WriteString("o placeholder\n")
	for _, v := range [][3]float32{
		{-hx, -hy, -hz}, {hx, -hy, -hz}, {hx, hy, -hz}, {-hx, hy, -hz},
		{-hx, -hy, hz}, {hx, -hy, hz}, {hx, hy, hz}, {-hx, hy, hz},
	} {
		fmt.Fprintf(&b, "v %g %g %g\n", v[0], v[1], v[2])
	}
	for _, f := range [][4]int{
		{1, 2, 3, 4}, {5, 8, 7, 6}, {1, 5, 6, 2},
		{2, 6, 7, 3}, {3, 7, 8, 4}, {5, 1, 4, 8},
	} {
		fmt.Fprintf(&b, "f %d %d %d %d\n", f[0], f[1], f[2], f[3])
	}
	return b.Bytes()
}

// checkerSize is the side length of the generated checker texture.
const checkerSize = 8

// checkerPPM emits a binary PPM checkerboard alternating the given hex
// color with a darkened copy of it.
func checkerPPM(hexColor string) []byte {
	r, g, bl := parseHexColor(hexColor)
	var b bytes.Buffer
	fmt.Fprintf(&b, "P6\n%d %d\n255\n", checkerSize, checkerSize)
	for y := 0; y < checkerSize; y++ {
		for x := 0; x < checkerSize; x++ {
			if (x+y)%2 == 0 {
				b.Write([]byte{r, g, bl})
			} else {
				b.Write([]byte{r / 2, g / 2, bl / 2})
			}
		}
	}
	return b.Bytes()
}

// parseHexColor parses "#rrggbb"; anything else yields mid gray.
func parseHexColor(s string) (r, g, b byte) {
	var rv, gv, bv int
	if n, err := fmt.Sscanf(s, "#%02x%02x%02x", &rv, &gv, &bv); err != nil || n != 3 {
		return 128, 128, 128
	}
	return byte(rv), byte(gv), byte(bv)
}
