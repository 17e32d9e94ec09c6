package editor

// Size is a block's footprint on the canvas.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect is the visible part of the canvas in workspace coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DefaultBlockSize approximates a freshly dropped block.
var DefaultBlockSize = Size{Width: 200, Height: 40}

// PlaceInViewport returns the top-left corner that centers a block of the
// given size in viewport. An empty viewport places the block at the
// default start position.
func PlaceInViewport(size Size, viewport Rect) (x, y int) {
	if viewport.Width <= 0 || viewport.Height <= 0 {
		return DefaultStartX, DefaultStartY
	}
	return viewport.X + (viewport.Width-size.Width)/2, viewport.Y + (viewport.Height-size.Height)/2
}
