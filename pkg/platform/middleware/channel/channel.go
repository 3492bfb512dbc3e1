// Package channel derives the request channel from the User-Agent header.
// Operators usually act through the browser console while automation hits the
// API directly; audit entries record which one it was, so a disputed approval
// can be traced to a session kind, not just an actor.
package channel

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"opsdesk/pkg/requestcontext"
)

// Middleware classifies the request and stores the channel in the context.
// Browser traffic becomes "console/<browser>", everything else "api".
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithChannel(r.Context(), Classify(r.Header.Get("User-Agent")))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Classify maps a raw User-Agent string to a channel label.
func Classify(rawUA string) string {
	if strings.TrimSpace(rawUA) == "" {
		return "api"
	}
	ua := useragent.New(rawUA)
	if ua.Bot() {
		return "api"
	}
	name, _ := ua.Browser()
	if name == "" {
		return "api"
	}
	// Known browsers are treated as the operator console; anything the parser
	// cannot name (curl, SDK clients) is API traffic.
	switch name {
	case "Chrome", "Firefox", "Safari", "Edge", "Opera", "Internet Explorer", "Chromium":
		return "console/" + name
	}
	return "api"
}
