package ml

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sort"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// LoadImage Open and decode a stored upload. Jpeg, png and webp decoders
// are registered.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Preprocess Convert an image into the flat float32 tensor the classifier
// expects: bilinear resize to size x size (aspect ratio is distorted, as at
// training time), RGB channels scaled to [0,1], NHWC layout with a single
// item batch. Deterministic for identical input.
func Preprocess(img image.Image, size int) []float32 {
	resized := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(resized, resized.Bounds(), img, img.Bounds(), draw.Src, nil)

	tensor := make([]float32, 0, size*size*3)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			i := resized.PixOffset(x, y)
			tensor = append(tensor,
				float32(resized.Pix[i])/255.0,
				float32(resized.Pix[i+1])/255.0,
				float32(resized.Pix[i+2])/255.0,
			)
		}
	}
	return tensor
}

// TopK Indices of the k largest probabilities in descending order. When the
// vector is shorter than k all indices are returned. Ties resolve to the
// lowest index first, which is observable in scan responses.
func TopK(probs []float32, k int) []int {
	indices := make([]int, len(probs))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return probs[indices[a]] > probs[indices[b]]
	})
	if k < len(indices) {
		indices = indices[:k]
	}
	return indices
}

// ArgMax Index of the largest probability, lowest index on ties
func ArgMax(probs []float32) int {
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return best
}
