package handlers

import (
	"io/fs"
	"net/http"
)

// Page shells embedded by the binary.
const (
	indexPage = "web/index.html"
	loginPage = "web/login.html"
)

// ServeApp serves the single-page shell for every client route
// @Summary Serve application shell
// @Description Serves the HTML shell of the single-page app. Protected routes redirect to /login without a session.
// @Tags frontend
// @Produce html
// @Success 200 {string} string "Application HTML"
// @Failure 302 {string} string "Redirect to /login"
// @Failure 404 {string} string "Frontend not found"
// @Router / [get]
func (h *Handlers) ServeApp(w http.ResponseWriter, r *http.Request) {
	h.servePage(w, indexPage)
}

// ServeLogin serves the login page
// @Summary Serve login page
// @Description Serves the HTML login page. An error query parameter carries the reason of a failed login.
// @Tags frontend
// @Produce html
// @Param error query string false "Failure code of the previous attempt"
// @Success 200 {string} string "Login page HTML"
// @Failure 404 {string} string "Login page not found"
// @Router /login [get]
func (h *Handlers) ServeLogin(w http.ResponseWriter, r *http.Request) {
	h.servePage(w, loginPage)
}

func (h *Handlers) servePage(w http.ResponseWriter, name string) {
	if h.webFS == nil {
		http.Error(w, "Frontend not found", http.StatusNotFound)
		return
	}

	content, err := fs.ReadFile(h.webFS, name)
	if err != nil {
		http.Error(w, "Frontend not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(content)
}
