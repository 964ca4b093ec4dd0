package i18n

import "net/http"

// Middleware injects a localizer into every request context. The server
// language is the default; a request may ask for another bundled locale with
// a lang query parameter, so one deployment can serve clients in both
// languages.
func Middleware(lang string) func(http.Handler) http.Handler {
	def := NewLocalizer(lang)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loc := def
			if want := r.URL.Query().Get("lang"); want != "" && want != lang && Supported(want) {
				loc = NewLocalizer(want)
			}
			ctx := WithLocalizer(r.Context(), loc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
