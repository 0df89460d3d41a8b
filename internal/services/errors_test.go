package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"chitieu/internal/config"
	"chitieu/internal/core"
	"chitieu/internal/remote"
)

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{nil, KindNone},
		{core.Invalid("amount", core.ErrInvalidAmount), KindValidation},
		{ErrNoActiveChart, KindValidation},
		{fmt.Errorf("delete: %w", ErrTransactionNotFound), KindNotFound},
		{&remote.RemoteError{Action: "x", Message: "nope"}, KindRemote},
		{&remote.TransportError{Action: "x", Status: 502, Err: errors.New("bad gateway")}, KindTransport},
		{ErrSuperseded, KindConflict},
		{ErrMutationInProgress, KindConflict},
		{&config.ConfigError{Problems: []string{"API_URL is required"}}, KindConfig},
		{errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Kind(tt.err), "%v", tt.err)
	}
}
