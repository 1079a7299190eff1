package blob

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type store struct {
	Store
}

func TestLazy(t *testing.T) {
	calls := 0
	fail := true

	open := Lazy(func(context.Context) (Store, error) {
		calls++
		if fail {
			return nil, ErrConfiguration
		}
		return &store{}, nil
	})

	_, err := open(context.Background())
	require.True(t, errors.Is(err, ErrConfiguration))

	fail = false

	s1, err := open(context.Background())
	require.NoError(t, err)
	s2, err := open(context.Background())
	require.NoError(t, err)

	require.Same(t, s1, s2)
	require.Equal(t, 2, calls)
}
