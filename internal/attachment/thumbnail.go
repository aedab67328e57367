package attachment

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// thumbnailEdge es el largo del lado mayor de las miniaturas.
const thumbnailEdge = 200

// buildThumbnail decodifica la imagen, la escala manteniendo proporción para
// que su lado mayor mida thumbnailEdge y la reencodea como JPEG comprimido.
func buildThumbnail(data []byte, mimeType string) ([]byte, error) {
	src, err := decodeImage(data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrProcessing, mimeType, err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: imagen de dimensiones %dx%d", ErrProcessing, width, height)
	}

	var dstW, dstH int
	if width >= height {
		dstW = thumbnailEdge
		dstH = height * thumbnailEdge / width
	} else {
		dstH = thumbnailEdge
		dstW = width * thumbnailEdge / height
	}
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("%w: encode jpeg: %v", ErrProcessing, err)
	}
	return buf.Bytes(), nil
}

func decodeImage(data []byte, mimeType string) (image.Image, error) {
	r := bytes.NewReader(data)
	switch mimeType {
	case "image/jpeg":
		return jpeg.Decode(r)
	case "image/png":
		return png.Decode(r)
	case "image/gif":
		return gif.Decode(r)
	case "image/webp":
		return webp.Decode(r)
	default:
		return nil, fmt.Errorf("no decoder for %s", mimeType)
	}
}
