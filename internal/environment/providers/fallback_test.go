package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLadderFirstSuccess(t *testing.T) {
	var secondCalled bool
	got := runLadder(context.Background(), "test",
		Strategy[int]{Name: "first", Run: func(ctx context.Context) (*int, error) {
			return ptr(1), nil
		}},
		Strategy[int]{Name: "second", Run: func(ctx context.Context) (*int, error) {
			secondCalled = true
			return ptr(2), nil
		}},
	)
	require.NotNil(t, got)
	assert.Equal(t, 1, *got)
	assert.False(t, secondCalled)
}

func TestRunLadderFallsThroughErrorsAndEmptyResults(t *testing.T) {
	got := runLadder(context.Background(), "test",
		Strategy[int]{Name: "failing", Run: func(ctx context.Context) (*int, error) {
			return nil, errors.New("upstream down")
		}},
		Strategy[int]{Name: "empty", Run: func(ctx context.Context) (*int, error) {
			return nil, nil // reachable but nothing usable
		}},
		Strategy[int]{Name: "last", Run: func(ctx context.Context) (*int, error) {
			return ptr(3), nil
		}},
	)
	require.NotNil(t, got)
	assert.Equal(t, 3, *got)
}

func TestRunLadderAllRungsExhausted(t *testing.T) {
	got := runLadder(context.Background(), "test",
		Strategy[int]{Name: "failing", Run: func(ctx context.Context) (*int, error) {
			return nil, errors.New("upstream down")
		}},
	)
	assert.Nil(t, got)
}
