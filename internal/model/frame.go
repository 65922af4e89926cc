package model

// Frame is a single still image captured from a live frame source.
// The pixel data is JPEG-encoded and must not be mutated after capture;
// a frame is consumed exactly once by the prediction client and discarded.
type Frame struct {
	Data   []byte
	Width  int
	Height int
}

// Size returns the encoded size of the frame in bytes.
func (f Frame) Size() int {
	return len(f.Data)
}

// Empty reports whether the frame carries no image data.
func (f Frame) Empty() bool {
	return len(f.Data) == 0
}
