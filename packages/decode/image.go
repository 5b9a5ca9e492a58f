package decode

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
)

// Image decodes r with the registered PNG, JPEG and GIF decoders and
// returns the image and its format name.
func Image(r io.Reader) (image.Image, string, error) {
	return image.Decode(r)
}
