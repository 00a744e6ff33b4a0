package ml

import (
	"fmt"
	"os"
	"sync"

	tflite "github.com/tphakala/go-tflite"
)

// Classifier Runs one forward pass over a preprocessed image tensor and
// returns the probability vector over all known classes.
type Classifier interface {
	Predict(input []float32) ([]float32, error)
	Close()
}

// TFLiteClassifier Wraps a TensorFlow Lite interpreter. The interpreter is
// not safe for concurrent invocation, so predictions are serialized.
type TFLiteClassifier struct {
	mu          sync.Mutex
	interpreter *tflite.Interpreter
	model       *tflite.Model
}

// NewTFLiteClassifier Load the flatbuffer model at the given path and
// allocate an interpreter for it
func NewTFLiteClassifier(modelPath string) (*TFLiteClassifier, error) {
	modelData, err := os.ReadFile(modelPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read model file: %w", err)
	}

	model := tflite.NewModel(modelData)
	if model == nil {
		return nil, fmt.Errorf("cannot load TensorFlow Lite model from %s", modelPath)
	}

	options := tflite.NewInterpreterOptions()
	options.SetNumThread(4)

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		model.Delete()
		return nil, fmt.Errorf("cannot create interpreter")
	}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		model.Delete()
		return nil, fmt.Errorf("tensor allocation failed")
	}

	return &TFLiteClassifier{interpreter: interpreter, model: model}, nil
}

// Predict Copy the input tensor in, invoke the interpreter and copy the
// class probabilities out
func (c *TFLiteClassifier) Predict(input []float32) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	inputTensor := c.interpreter.GetInputTensor(0)
	if inputTensor == nil {
		return nil, fmt.Errorf("cannot get input tensor")
	}
	copy(inputTensor.Float32s(), input)

	if status := c.interpreter.Invoke(); status != tflite.OK {
		return nil, fmt.Errorf("tensor invoke failed: %v", status)
	}

	outputTensor := c.interpreter.GetOutputTensor(0)
	if outputTensor == nil {
		return nil, fmt.Errorf("cannot get output tensor")
	}
	probs := make([]float32, outputTensor.Dim(outputTensor.NumDims()-1))
	copy(probs, outputTensor.Float32s())
	return probs, nil
}

func (c *TFLiteClassifier) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.interpreter != nil {
		c.interpreter.Delete()
		c.interpreter = nil
	}
	if c.model != nil {
		c.model.Delete()
		c.model = nil
	}
}
