package builder

// Box is the vertical extent of a rendered question, relative to the canvas.
type Box struct {
	Top    float64
	Height float64
}

// InsertionIndex returns where a question dropped at pointerY lands: before
// the first box whose midpoint lies below the pointer, or at the end.
func InsertionIndex(pointerY float64, boxes []Box) int {
	for i, b := range boxes {
		if pointerY < b.Top+b.Height/2 {
			return i
		}
	}
	return len(boxes)
}
