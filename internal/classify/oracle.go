package classify

import "context"

type Request struct {
	Prompt      string
	Temperature float64
	MaxTokens   int
	JSON        bool
}

// Oracle is a single-shot text completion backend.
type Oracle interface {
	Complete(ctx context.Context, req Request) (string, error)
}

type OracleFunc func(ctx context.Context, req Request) (string, error)

func (f OracleFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
