package errcode

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeUnwraps(t *testing.T) {
	base := New(KindState, "CAMPAIGN_STILL_LIVE")
	wrapped := fmt.Errorf("lock campaign 3: %w", base)

	require.Equal(t, "CAMPAIGN_STILL_LIVE", Code(wrapped))
	require.Equal(t, http.StatusConflict, HTTPStatus(wrapped))
	require.Equal(t, "", Code(fmt.Errorf("plain")))
	require.Equal(t, http.StatusInternalServerError, HTTPStatus(fmt.Errorf("plain")))
}

func TestHTTPStatusByKind(t *testing.T) {
	cases := map[Kind]int{
		KindValidation: http.StatusBadRequest,
		KindAuth:       http.StatusForbidden,
		KindNotFound:   http.StatusNotFound,
		KindState:      http.StatusConflict,
		KindResource:   http.StatusUnprocessableEntity,
	}
	for kind, status := range cases {
		require.Equal(t, status, HTTPStatus(New(kind, "X")))
	}
}
