package errors

import (
	"testing"

	"github.com/pingcap/errors"
	"github.com/stretchr/testify/require"
)

func TestStructuralMessages(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  *errors.Error
		want string
	}{
		{ErrUnknownClient, "Unknown communication ID"},
		{ErrUnknownMessage, "Worker received message of not existing type."},
		{ErrUnknownRemoveKind, "Unknown delete type."},
	}
	for _, tc := range cases {
		err := tc.err.GenWithStackByArgs()
		require.Contains(t, err.Error(), tc.want)
		require.True(t, tc.err.Equal(err))
		require.False(t, IsRejection(err))
	}
}

func TestRejections(t *testing.T) {
	t.Parallel()

	err := ErrTextTooLong.FastGenByArgs(11, 10)
	require.True(t, IsRejection(err))
	require.Contains(t, err.Error(), "text has 11 characters, limit is 10")
	require.False(t, ErrUserBanned.Equal(err))

	require.True(t, IsRejection(ErrUserBanned.GenWithStackByArgs("mallory")))
	require.False(t, IsRejection(nil))
	require.False(t, IsRejection(errors.New("plain")))
}

func TestWrapError(t *testing.T) {
	t.Parallel()

	require.Nil(t, WrapError(ErrJournalWrite, nil))

	cause := errors.New("disk full")
	err := WrapError(ErrJournalWrite, cause)
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk full")
}
