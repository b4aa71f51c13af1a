package kernel

import "errors"

// ErrRetrieverRequired is returned by Build when no retriever is given.
var ErrRetrieverRequired = errors.New("retriever is required")
