//go:build onnx

package main

import (
	"os"

	"github.com/recallware/recall-go/memory"
	"github.com/recallware/recall-go/memory/embedder/onnx"
)

func newONNXEmbedder() (memory.Embedder, error) {
	return onnx.New(onnx.Config{
		ModelPath:     os.Getenv("ONNX_MODEL_PATH"),
		TokenizerPath: os.Getenv("ONNX_TOKENIZER_PATH"),
	})
}
