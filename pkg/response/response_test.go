package response

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	errInvalid := errors.New("invalid sort field")

	resp := FromError(fmt.Errorf("scan: %w", errInvalid), errInvalid)
	require.Equal(t, APIResponseCodeBadRequest, resp.Code)
	require.Equal(t, "bad request", resp.Message)
	require.Equal(t, "scan: invalid sort field", resp.Data)

	resp = FromError(errors.New("dial tcp: connection refused"), errInvalid)
	require.Equal(t, APIResponseCodeError, resp.Code)
	require.Nil(t, resp.Data)
}

func TestOKT(t *testing.T) {
	resp := OKT(map[string]int{"total": 1})
	require.Equal(t, APIResponseCodeOK, resp.Code)
	require.Equal(t, "ok", resp.Message)
	require.Equal(t, 1, resp.Data["total"])
}
