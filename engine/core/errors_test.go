package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	base := errors.New("boom")

	tests := []struct {
		name  string
		err   error
		fatal bool
		stale bool
	}{
		{"fatal setup", Fatal("create swapchain", base), true, false},
		{"stale", Stale("present", nil), false, true},
		{"timeout", Timeout("wait fence", base), true, false},
		{"transfer", TransferFailed("submit staging", base), true, false},
		{"untagged", base, true, false},
		{"nil", nil, false, false},
		{"wrapped stale", fmt.Errorf("frame 3: %w", Stale("acquire", nil)), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fatal, IsFatal(tt.err))
			assert.Equal(t, tt.stale, IsStale(tt.err))
		})
	}
}

func TestRenderErrorUnwrap(t *testing.T) {
	err := Fatal("find memory type", ErrNoMemoryType)
	assert.ErrorIs(t, err, ErrNoMemoryType)
	assert.Equal(t, "fatal: find memory type: no suitable memory type", err.Error())

	kind, ok := KindOf(fmt.Errorf("upload: %w", TransferFailed("submit", nil)))
	assert.True(t, ok)
	assert.Equal(t, KindTransfer, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}
