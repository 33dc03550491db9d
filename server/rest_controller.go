package server

import "net/http"

// RestController is implemented by anything registered with Builder.RegisterController.
// Its factory's parameters are resolved from the builder's providers.
type RestController interface {
	Routes() []Route
}

// Route binds a ServeMux pattern to a handler. An empty Method accepts every method.
type Route struct {
	Pattern string
	Method  string
	Handler http.HandlerFunc
}

// methodFilterHandler answers 405 with an Allow header for other methods.
func methodFilterHandler(method string, handler http.HandlerFunc) http.HandlerFunc {
	if method == "" {
		return handler
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}
