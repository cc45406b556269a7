// internal/app/features/errors/render.go
package errors

import (
	"encoding/json"
	stderrors "errors"
	"html/template"
	"net/http"
	"strings"

	"kpihub/internal/app/lifecycle"
	"kpihub/internal/app/system/authz"
)

// pageData is the view model for the inline error pages.
type pageData struct {
	Title      string
	IsLoggedIn bool
	Role       string
	UserName   string
	Message    string
	BackURL    string
}

// errorBody is the JSON envelope for every non-2xx API response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// StatusFor maps a lifecycle error kind to its HTTP status. Errors that
// carry no kind are treated as internal failures.
func StatusFor(err error) int {
	switch lifecycle.KindOf(err) {
	case lifecycle.KindValidation:
		return http.StatusBadRequest
	case lifecycle.KindNotFound:
		return http.StatusNotFound
	case lifecycle.KindConflict:
		return http.StatusConflict
	case lifecycle.KindAuthorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// WriteError answers the request with the status and message carried by a
// kinded error. Internal errors get a generic message; use
// ErrorLogger.Respond when the cause should also be logged.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	msg := "Something went wrong. Please try again."
	if status != http.StatusInternalServerError {
		msg = err.Error()
		var le *lifecycle.Error
		if stderrors.As(err, &le) {
			msg = le.Message
		}
	}

	if wantsJSON(r) {
		WriteJSONError(w, status, string(lifecycle.KindOf(err)), msg)
		return
	}
	renderPage(w, r, status, errorPageData(r, statusTitle(status), msg, ""))
}

// WriteJSONError writes the standard JSON error envelope.
func WriteJSONError(w http.ResponseWriter, status int, kind, message string) {
	if kind == "" {
		kind = "internal"
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: errorDetail{Kind: kind, Message: message}})
}

// RenderUnauthorized answers a request that needs a signed-in user.
// Browser requests get the sign-in page; API clients get JSON 401.
// If backURL is empty it defaults to /login.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, backURL string) {
	if wantsJSON(r) {
		WriteJSONError(w, http.StatusUnauthorized, "unauthorized", "sign in required")
		return
	}
	if backURL == "" {
		backURL = "/login"
	}
	renderPage(w, r, http.StatusUnauthorized,
		errorPageData(r, "Sign in required", "Please sign in to continue.", backURL))
}

// RenderForbidden answers a request the signed-in user may not make.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if msg == "" {
		msg = "You don't have permission to do that."
	}
	if wantsJSON(r) {
		WriteJSONError(w, http.StatusForbidden, string(lifecycle.KindAuthorization), msg)
		return
	}
	if backURL == "" {
		backURL = "/"
	}
	renderPage(w, r, http.StatusForbidden, errorPageData(r, "Access denied", msg, backURL))
}

// RenderNotFound answers a request for a record that does not exist.
func RenderNotFound(w http.ResponseWriter, r *http.Request, msg string) {
	if msg == "" {
		msg = "The page you're looking for doesn't exist."
	}
	if wantsJSON(r) {
		WriteJSONError(w, http.StatusNotFound, string(lifecycle.KindNotFound), msg)
		return
	}
	renderPage(w, r, http.StatusNotFound, errorPageData(r, "Not found", msg, "/"))
}

// RenderServerError answers a request that failed for an internal reason.
// The message should already be user-safe; log the cause separately.
func RenderServerError(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	if msg == "" {
		msg = "Something went wrong. Please try again."
	}
	if wantsJSON(r) {
		WriteJSONError(w, http.StatusInternalServerError, "internal", msg)
		return
	}
	if backURL == "" {
		backURL = "/"
	}
	renderPage(w, r, http.StatusInternalServerError, errorPageData(r, "Server error", msg, backURL))
}

// helpers

func errorPageData(r *http.Request, title, msg, backURL string) pageData {
	role, name, _, signedIn := authz.UserCtx(r)
	return pageData{
		Title:      title,
		IsLoggedIn: signedIn,
		Role:       role,
		UserName:   name,
		Message:    msg,
		BackURL:    backURL,
	}
}

func statusTitle(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Invalid request"
	case http.StatusNotFound:
		return "Not found"
	case http.StatusConflict:
		return "Conflict"
	case http.StatusForbidden:
		return "Access denied"
	default:
		return "Server error"
	}
}

// wantsJSON treats the request as an API call unless it is HTMX or
// explicitly accepts text/html. The default leans JSON because most of
// the surface is the indicator API.
func wantsJSON(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return false
	}
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") {
		return true
	}
	return !strings.Contains(accept, "text/html")
}

var errorPageTmpl = template.Must(template.New("error_page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; margin: 0; background: #f7f7f8; color: #1f2328; }
main { max-width: 36rem; margin: 6rem auto; padding: 2rem; background: #fff; border-radius: 8px; box-shadow: 0 1px 3px rgba(0,0,0,.1); }
h1 { font-size: 1.4rem; margin-top: 0; }
a.button { display: inline-block; margin-top: 1rem; padding: .5rem 1rem; background: #2563eb; color: #fff; border-radius: 6px; text-decoration: none; }
</style>
</head>
<body>
<main>
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
{{if .BackURL}}<a class="button" href="{{.BackURL}}">Continue</a>{{end}}
</main>
</body>
</html>
`))

func renderPage(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = errorPageTmpl.Execute(w, data)
}
