//go:build !onnx

package main

import (
	"errors"

	"github.com/recallware/recall-go/memory"
)

func newONNXEmbedder() (memory.Embedder, error) {
	return nil, errors.New("built without onnx support, rebuild with -tags onnx")
}
