package ml

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopKReturnsDescendingIndices(t *testing.T) {
	probs := []float32{0.1, 0.4, 0.05, 0.3, 0.15}

	order := TopK(probs, 3)

	require.Len(t, order, 3)
	assert.Equal(t, []int{1, 3, 4}, order)
	for i := 1; i < len(order); i++ {
		assert.GreaterOrEqual(t, probs[order[i-1]], probs[order[i]])
	}
	for _, idx := range order {
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, len(probs))
	}
}

func TestTopKShortVector(t *testing.T) {
	probs := []float32{0.2, 0.8}

	order := TopK(probs, 5)

	assert.Equal(t, []int{1, 0}, order)
}

func TestTopKTiesPreferLowestIndex(t *testing.T) {
	probs := []float32{0.25, 0.25, 0.5, 0.25}

	order := TopK(probs, 4)

	assert.Equal(t, []int{2, 0, 1, 3}, order)
}

func TestArgMax(t *testing.T) {
	assert.Equal(t, 2, ArgMax([]float32{0.1, 0.2, 0.7}))
	// ties resolve to the lowest index
	assert.Equal(t, 0, ArgMax([]float32{0.5, 0.5}))
}

func TestPreprocessShapeAndRange(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 3), G: uint8(y * 5), B: 40, A: 255})
		}
	}

	tensor := Preprocess(img, 32)

	require.Len(t, tensor, 32*32*3)
	for _, v := range tensor {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}
}

func TestPreprocessSolidColor(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 0, B: 127, A: 255})
		}
	}

	tensor := Preprocess(img, 4)

	require.Len(t, tensor, 4*4*3)
	for i := 0; i < len(tensor); i += 3 {
		assert.InDelta(t, 1.0, float64(tensor[i]), 0.01)
		assert.InDelta(t, 0.0, float64(tensor[i+1]), 0.01)
		assert.InDelta(t, 127.0/255.0, float64(tensor[i+2]), 0.01)
	}
}

func TestPreprocessDeterministic(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 30, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 30; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 11), B: uint8(x + y), A: 255})
		}
	}

	first := Preprocess(img, 16)
	second := Preprocess(img, 16)

	assert.Equal(t, first, second)
}
