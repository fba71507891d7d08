package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestPagesCmd(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{args: []string{"pages", "2", "5"}, want: "1 [2] 3 4 5\n"},
		{args: []string{"pages", "50", "100"}, want: "1 ... 49 [50] 51 ... 100\n"},
		{args: []string{"pages", "1", "10"}, want: "[1] 2 3 ... 9 10\n"},
		{args: []string{"pages", "99", "3"}, want: "1 2 [3]\n"},
		{args: []string{"pages", "1", "0"}, want: "[1]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			out, err := execute(t, tt.args...)

			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestPagesCmd_InvalidArgs(t *testing.T) {
	_, err := execute(t, "pages", "two", "5")
	assert.ErrorContains(t, err, `current page "two" is not a number`)

	_, err = execute(t, "pages", "1")
	assert.Error(t, err)
}

func TestImageCmd(t *testing.T) {
	out, err := execute(t, "image", "https://commons.wikimedia.org/w/index.php?title=Special:Redirect/file/Example.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://upload.wikimedia.org/wikipedia/commons/a/a9/Example.jpg\n", out)

	out, err = execute(t, "image", "-v", "https://commons.wikimedia.org/w/index.php?title=Special:Redirect/file/Example.jpg")
	require.NoError(t, err)
	assert.Contains(t, out, "filename: Example.jpg\n")

	out, err = execute(t, "image", "https://example.org/logo.png")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/logo.png\n", out)
}

func TestWorkCmd(t *testing.T) {
	var gotPath, gotMailto string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMailto = r.URL.Query().Get("mailto")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "https://openalex.org/W2741809807",
			"display_name": "The state of OA",
			"abstract_inverted_index": {"Despite": [0], "growing": [1], "interest": [2]}
		}`))
	}))
	defer server.Close()

	t.Run("text", func(t *testing.T) {
		out, err := execute(t, "work", "https://openalex.org/W2741809807", "--base-url", server.URL, "--email", "cli@example.org")

		require.NoError(t, err)
		assert.Equal(t, "/works/W2741809807", gotPath)
		assert.Equal(t, "cli@example.org", gotMailto)
		assert.Equal(t, "The state of OA\n===============\nDespite growing interest\n", out)
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "work", "W2741809807", "--base-url", server.URL, "--json")

		require.NoError(t, err)
		var got map[string]string
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "W2741809807", got["id"])
		assert.Equal(t, "Despite growing interest", got["abstract"])
	})
}

func TestWorkCmd_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	_, err := execute(t, "work", "W1", "--base-url", server.URL)

	assert.ErrorContains(t, err, "work not found")
}
