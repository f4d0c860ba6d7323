package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRevertError(t *testing.T) {
	err := error(&RevertError{Method: "mintPunk", Err: ErrPaused})

	assert.True(t, IsRevert(err))
	assert.ErrorIs(t, err, ErrPaused)
	assert.Equal(t, "mintPunk reverted: vault is paused", err.Error())

	wrapped := fmt.Errorf("stage mint: %w", err)
	assert.True(t, IsRevert(wrapped))

	var re *RevertError
	assert.True(t, errors.As(wrapped, &re))
	assert.Equal(t, "mintPunk", re.Method)
}

func TestIsRevert_PlainErrors(t *testing.T) {
	assert.False(t, IsRevert(nil))
	assert.False(t, IsRevert(ErrPaused))
	assert.False(t, IsRevert(errors.New("boom")))
}
