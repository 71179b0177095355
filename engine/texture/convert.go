package texture

import (
	"fmt"
	"math"
)

// convertPixels writes 0xRRGGBB source pixels into dst as RGBA8, scaling square sources up to size with nearest sampling.
// Black pixels are fully transparent.
func convertPixels(src []int32, dst []byte, size int) error {
	srcSize := int(math.Sqrt(float64(len(src))))
	if srcSize == 0 || srcSize*srcSize != len(src) || size%srcSize != 0 {
		return fmt.Errorf("unsupported texture of %d pixels", len(src))
	}
	scale := size / srcSize

	for y := range size {
		row := (y / scale) * srcSize
		for x := range size {
			rgb := src[row+x/scale]
			o := (y*size + x) * 4
			if rgb == 0 {
				dst[o], dst[o+1], dst[o+2], dst[o+3] = 0, 0, 0, 0
				continue
			}
			dst[o] = byte(rgb >> 16)
			dst[o+1] = byte(rgb >> 8)
			dst[o+2] = byte(rgb)
			dst[o+3] = 0xFF
		}
	}
	return nil
}
