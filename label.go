package objsplit

import "image"

// labelGrid holds one component id per pixel, row-major. 0 is background.
type labelGrid struct {
	W, H   int
	Labels []int32
}

func (g labelGrid) at(x, y int) int32 {
	return g.Labels[y*g.W+x]
}

// boxAccumulator is the running inclusive bounding box of one label.
type boxAccumulator struct {
	minX, minY, maxX, maxY int
	count                  int
}

func (b *boxAccumulator) add(x, y int) {
	if b.count == 0 {
		b.minX, b.maxX, b.minY, b.maxY = x, x, y, y
	} else {
		b.minX = min(b.minX, x)
		b.maxX = max(b.maxX, x)
		b.minY = min(b.minY, y)
		b.maxY = max(b.maxY, y)
	}
	b.count++
}

// rect converts the inclusive box into a half-open image.Rectangle.
func (b boxAccumulator) rect() image.Rectangle {
	return image.Rect(b.minX, b.minY, b.maxX+1, b.maxY+1)
}

var (
	dx4 = [4]int{-1, 0, 1, 0}
	dy4 = [4]int{0, -1, 0, 1}
)

// labelOpaque labels the 4-connected components of the pixels with a
// non-zero alpha. Ids are handed out in row-major order of each component's
// first pixel, so boxes[id-1] is the box of label id. Components are
// flooded breadth-first from one reused queue.
func labelOpaque(img *image.NRGBA) (labelGrid, []boxAccumulator) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	grid := labelGrid{W: w, H: h, Labels: make([]int32, w*h)}
	if w == 0 || h == 0 {
		return grid, nil
	}

	opaque := func(idx int) bool {
		x, y := idx%w, idx/w
		return img.Pix[y*img.Stride+x*4+3] > 0
	}

	var boxes []boxAccumulator
	queue := make([]int, 0, 256)
	for start := range w * h {
		if grid.Labels[start] != 0 || !opaque(start) {
			continue
		}
		boxes = append(boxes, boxAccumulator{})
		label := int32(len(boxes))
		box := &boxes[label-1]

		grid.Labels[start] = label
		queue = append(queue[:0], start)
		for head := 0; head < len(queue); head++ {
			cur := queue[head]
			cx, cy := cur%w, cur/w
			box.add(cx, cy)
			for k := range 4 {
				nx, ny := cx+dx4[k], cy+dy4[k]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				nIdx := ny*w + nx
				if grid.Labels[nIdx] == 0 && opaque(nIdx) {
					grid.Labels[nIdx] = label
					queue = append(queue, nIdx)
				}
			}
		}
	}
	return grid, boxes
}
