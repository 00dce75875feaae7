// Package pixel implements the monochrome pixel model of a 128×64 dot-matrix panel.
//
// The [Bitmap] type is compatible with Go's native [color.Color] and [image.Image] /
// [draw.Image] interfaces, so any drawing code can render onto it.
package pixel
