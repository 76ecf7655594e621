package app

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "shorts-web/docs"
	"shorts-web/internal/config"
)

var pathPattern = regexp.MustCompile(`\{(\w+):[^}]+\}`)

func TestSwaggerDocumentCoversAPIRoutes(t *testing.T) {
	backend := newTestBackend(t)
	app := newTestApp(t, backend.server.URL, config.GuardModeStrict)
	handler := app.Handler(testWebFS)
	srv, client := newBrowser(t, handler)

	resp, body := get(t, client, srv.URL+"/swagger/doc.json")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &doc))

	router, ok := handler.(*mux.Router)
	require.True(t, ok)

	var checked int
	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		tmpl, err := route.GetPathTemplate()
		if err != nil || !strings.HasPrefix(tmpl, "/api/") {
			return nil
		}
		methods, err := route.GetMethods()
		if err != nil {
			return nil
		}

		path := pathPattern.ReplaceAllString(tmpl, "{$1}")
		operations, documented := doc.Paths[path]
		if !assert.True(t, documented, "%s is not documented", path) {
			return nil
		}
		for _, method := range methods {
			_, found := operations[strings.ToLower(method)]
			assert.True(t, found, "%s %s is not documented", method, path)
			checked++
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, len(apiRoutes()), checked)
}
