package middlewares

import (
	"mime"
	"net/http"
)

// MaxJSONBodySize caps every request body that is not a multipart upload
const MaxJSONBodySize int64 = 1 << 20

// RequestSizeLimitMiddleware caps request bodies. Multipart uploads (blobs, item files,
// thumbnails) may use up to maxUploadSize bytes; any other body is held to MaxJSONBodySize.
func RequestSizeLimitMiddleware(maxUploadSize int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit := bodyLimit(r, maxUploadSize)
			if r.ContentLength > limit {
				writeError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

// bodyLimit picks the body cap for the request's content type
func bodyLimit(r *http.Request, maxUploadSize int64) int64 {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" || maxUploadSize < MaxJSONBodySize {
		return maxUploadSize
	}
	return MaxJSONBodySize
}
