package middleware

import (
	"hotelops/pkg/logger"
	"mime"
	"net/http"
	"strings"
)

// ContentTypeValidation rejects request bodies that are not JSON. Structured
// JSON types such as application/merge-patch+json are accepted too.
func ContentTypeValidation(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !carriesBody(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Content-Type")
			if isJSONMediaType(header) {
				next.ServeHTTP(w, r)
				return
			}

			log.Warn("Rejected request body media type",
				"request_id", RequestIDFromContext(r.Context()),
				"content_type", header,
				"method", r.Method,
				"path", r.URL.Path,
			)
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		})
	}
}

func carriesBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

func isJSONMediaType(header string) bool {
	if header == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return false
	}
	return mediaType == "application/json" ||
		(strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json"))
}
