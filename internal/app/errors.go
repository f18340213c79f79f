package service

import "errors"

var (
	// ErrNoSources is returned by Batch when there is nothing to process.
	ErrNoSources = errors.New("no source files")
	// ErrNoEmbedding is returned by session queries made before an embedding is loaded.
	ErrNoEmbedding = errors.New("no embedding loaded")
)
