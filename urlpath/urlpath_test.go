package urlpath

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ts4z/homegame/he"
)

func request(id string) *http.Request {
	r := httptest.NewRequest("GET", "/tournaments/x", nil)
	r.SetPathValue("id", id)
	return r
}

func TestID(t *testing.T) {
	id, err := ID(request("42"), "id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "x", "-3", "1.5"} {
		_, err := ID(request(bad), "id")
		assert.Error(t, err, bad)
		assert.Equal(t, 400, he.CodeOf(err), bad)
	}
}

func TestIDPathValueReportsError(t *testing.T) {
	w := httptest.NewRecorder()
	_, ok := IDPathValue(w, request("nope"))
	assert.False(t, ok)
	assert.Equal(t, 400, w.Code)
	assert.Contains(t, w.Body.String(), "can't parse id")
}

func TestIntQuery(t *testing.T) {
	r := httptest.NewRequest("GET", "/tournaments?offset=10&limit=x", nil)

	v, err := IntQuery(r, "offset", 0)
	require.NoError(t, err)
	assert.Equal(t, 10, v)

	v, err = IntQuery(r, "missing", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = IntQuery(r, "limit", 50)
	assert.Error(t, err)
}
