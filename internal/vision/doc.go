// Package vision locates the game prop in a camera frame.
//
// A frame is thresholded in HSV space, red (two hue bands, since red wraps
// around hue zero) or blue depending on alliance, and the matching pixels
// are counted inside three fixed regions of interest. The region with the
// most matches wins:
//
//	left >= middle && left >= right  -> LEFT
//	right >= middle                  -> RIGHT
//	otherwise                        -> MIDDLE
//
// Hue, saturation and value use the 8-bit OpenCV scale: H in [0, 180],
// S and V in [0, 255]. Region sums are reported the same way a binary mask
// sums, 255 per matching pixel.
package vision
