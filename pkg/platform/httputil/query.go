package httputil

import (
	"net/http"

	"github.com/gorilla/schema"

	dErrors "agristack/pkg/domain-errors"
)

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// DecodeQuery fills dst from the request's query string. Field types that
// implement encoding.TextUnmarshaler are decoded through it.
func DecodeQuery(r *http.Request, dst any) error {
	if err := queryDecoder.Decode(dst, r.URL.Query()); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid query parameters")
	}
	return nil
}
