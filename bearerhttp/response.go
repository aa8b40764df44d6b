package bearerhttp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/elnormous/contenttype"
)

var (
	jsonMediaType  = contenttype.NewMediaType("application/json")
	textMediaType  = contenttype.NewMediaType("text/plain")
	errorMediaType = []contenttype.MediaType{jsonMediaType, textMediaType}
)

// buildBearerChallenge builds a Bearer challenge header value.
// Format:
//
//	Bearer realm="<realm>", error="...", error_description="..."
//
// Realm is omitted if empty. error and error_description come first; any
// other params follow in key order.
func buildBearerChallenge(realm string, params map[string]string) string {
	pieces := make([]string, 0, 1+len(params))
	esc := func(v string) string { return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(v) }
	if realm != "" {
		pieces = append(pieces, fmt.Sprintf(`realm="%s"`, esc(realm)))
	}
	if v, ok := params["error"]; ok {
		pieces = append(pieces, fmt.Sprintf(`error="%s"`, esc(v)))
	}
	if v, ok := params["error_description"]; ok {
		pieces = append(pieces, fmt.Sprintf(`error_description="%s"`, esc(v)))
	}
	rest := make([]string, 0, len(params))
	for k := range params {
		if k == "error" || k == "error_description" {
			continue
		}
		rest = append(rest, k)
	}
	sort.Strings(rest)
	for _, k := range rest {
		pieces = append(pieces, fmt.Sprintf(`%s="%s"`, k, esc(params[k])))
	}
	if len(pieces) == 0 {
		return "Bearer"
	}
	return "Bearer " + strings.Join(pieces, ", ")
}

// writeError emits an error body in the representation the client prefers.
// JSON shape: {"error":{"code":<httpStatus>,"message":"<reason>","error_code":"<code>"}}
func writeError(w http.ResponseWriter, r *http.Request, status int, msg string, code string) {
	mt, _, err := contenttype.GetAcceptableMediaType(r, errorMediaType)
	if err == nil && mt.String() == textMediaType.String() {
		w.Header().Set("Content-Type", textMediaType.String()+"; charset=utf-8")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.WriteHeader(status)
		if code != "" {
			msg = code + ": " + msg
		}
		_, _ = fmt.Fprintln(w, msg)
		return
	}

	body := map[string]any{"code": status, "message": msg}
	if code != "" {
		body["error_code"] = code
	}
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": body})
}
