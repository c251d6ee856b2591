package openai

import "errors"

var (
	errNoChoices   = errors.New("response contained no choices")
	errNoEmbedding = errors.New("response contained no embedding")
)
