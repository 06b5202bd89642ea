package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadHAR_BrowserExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.har")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"log": {
			"version": "1.2",
			"creator": {"name": "Firefox", "version": "120"},
			"entries": [{
				"request": {
					"method": "POST",
					"url": "https://secure.tangerine.ca/web/Tangerine.html",
					"postData": {"mimeType": "application/x-www-form-urlencoded", "text": "command=PersonalCIF"}
				},
				"response": {
					"status": 200,
					"headers": [{"name": "Set-Cookie", "value": "JSESSIONID=1"}],
					"content": {"mimeType": "text/html", "text": "<html></html>"}
				}
			}]
		}
	}`), 0o644))

	har, err := LoadHAR(path)

	require.NoError(t, err)
	require.Len(t, har.Entries, 1)
	e := har.Entries[0]
	assert.Equal(t, "POST", e.Request.Method)
	assert.Equal(t, "command=PersonalCIF", e.Request.Body)
	assert.Equal(t, 200, e.Response.Status)
	assert.Equal(t, "JSESSIONID=1", e.Response.Header().Get("Set-Cookie"))
	assert.Equal(t, "text/html", e.Response.Header().Get("Content-Type"))
}

func TestLoadHAR_SimplifiedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simple.har.json")
	in := &HARLog{Entries: []HAREntry{{
		Request:  HARRequest{Method: "GET", URL: "https://bank.test/"},
		Response: HARResponse{Status: 204},
	}}}

	require.NoError(t, SaveHAR(path, in))
	out, err := LoadHAR(path)

	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestLoadHAR_Errors(t *testing.T) {
	_, err := LoadHAR(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("not json"), 0o644))
	_, err = LoadHAR(bad)
	assert.ErrorContains(t, err, "parse HAR JSON")
}

func TestHARContent_BinaryIsBase64(t *testing.T) {
	c := harContent("application/octet-stream", []byte{0xff, 0xfe})

	assert.Equal(t, "base64", c.Encoding)
	assert.Equal(t, []byte{0xff, 0xfe}, HARResponse{Content: c}.Body())
}
