// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package failure

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestKindString(t *testing.T) {
	assert.Equal(t, "network", KindNetwork.String())
	assert.Equal(t, "registry", KindRegistry.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestNoMatchIsErrNoMatch(t *testing.T) {
	err := fmt.Errorf("resolving: %w", NoMatch("resolve", "xyzzyqwerty"))
	assert.True(t, errors.Is(err, ErrNoMatch))
	assert.Equal(t, KindResolution, KindOf(err))
	assert.Contains(t, err.Error(), "xyzzyqwerty")
}

func TestNetworkIsNotNoMatch(t *testing.T) {
	err := FromTransport("namematch.search", errors.New("connection refused"))
	assert.False(t, errors.Is(err, ErrNoMatch))
	assert.True(t, Is(err, KindNetwork))
}

func TestFromTransport(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"net timeout", timeoutErr{}, KindTimeout},
		{"refused", errors.New("dial tcp: connection refused"), KindNetwork},
		{"already classified", New(KindAdapter, "x", "bad shape", nil), KindAdapter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(FromTransport("op", tt.err)))
		})
	}
}

func TestFromTransportKeepsCancellation(t *testing.T) {
	err := FromTransport("op", fmt.Errorf("wrapped: %w", context.Canceled))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, KindUnknown, KindOf(err))
	assert.NoError(t, FromTransport("op", nil))
}

func TestUserMessage(t *testing.T) {
	assert.Contains(t, UserMessage(New(KindTimeout, "op", "", nil)), "narrower query")
	assert.Contains(t, UserMessage(New(KindRegistry, "op", "", nil)), "not implemented")
	assert.Contains(t, UserMessage(New(KindExtraction, "op", "no temporal parameter", nil)), "no temporal parameter")
	assert.NotContains(t, UserMessage(New(KindNetwork, "ala.search", "", errors.New("tcp 10.0.0.1"))), "10.0.0.1")
}
