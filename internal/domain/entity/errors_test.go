package entity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want FailureKind
	}{
		{nil, FailureNone},
		{fmt.Errorf("%w: status 401", ErrCapture), FailureCapture},
		{fmt.Errorf("crop: %w", fmt.Errorf("%w: out of bounds", ErrImageDecode)), FailureImageDecode},
		{fmt.Errorf("%w: class open is empty", ErrTrainingData), FailureTrainingData},
		{fmt.Errorf("%w: 3 != 2", ErrModelLoad), FailureModelLoad},
		{fmt.Errorf("%w: zero extent", ErrInference), FailureInference},
		{fmt.Errorf("%w: permission denied", ErrState), FailureState},
		{errors.New("boom"), FailureUnknown},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, KindOf(tc.err), "error %v", tc.err)
	}
}
