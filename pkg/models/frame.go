package models

// Frame is one acquired camera frame in the device-native BGR8 packed
// encoding: Pix holds Height rows of Width pixels, three bytes per pixel
// in B, G, R order.
type Frame struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewFrame allocates an all-black frame of the given dimensions.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*3),
	}
}

// Empty reports whether the frame has no pixel data.
func (f *Frame) Empty() bool {
	return f == nil || f.Width <= 0 || f.Height <= 0 || len(f.Pix) < f.Width*f.Height*3
}

// BGRAt returns the blue, green and red channel values at (x, y).
// The caller is responsible for bounds.
func (f *Frame) BGRAt(x, y int) (b, g, r uint8) {
	i := (y*f.Width + x) * 3
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// SetBGR writes the blue, green and red channel values at (x, y).
func (f *Frame) SetBGR(x, y int, b, g, r uint8) {
	i := (y*f.Width + x) * 3
	f.Pix[i], f.Pix[i+1], f.Pix[i+2] = b, g, r
}

// Fill paints the whole frame with a single BGR color.
func (f *Frame) Fill(b, g, r uint8) {
	for i := 0; i < len(f.Pix); i += 3 {
		f.Pix[i], f.Pix[i+1], f.Pix[i+2] = b, g, r
	}
}
