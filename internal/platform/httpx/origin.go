package httpx

import (
	"net/http"
	"net/url"
	"strings"
)

// SameOrigin rejects state-changing requests that a browser sent from another
// site. The request must name its origin through Origin or Referer, and any
// Sec-Fetch-Site header must say same-origin or none.
func SameOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if safeMethod(r.Method) || fromSameOrigin(r) {
			next.ServeHTTP(w, r)
			return
		}
		WriteProblem(w, ProblemDetail{
			Title:  http.StatusText(http.StatusForbidden),
			Status: http.StatusForbidden,
			Detail: "cross-site request rejected",
			Kind:   "cross_site",
		})
	})
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func fromSameOrigin(r *http.Request) bool {
	switch strings.ToLower(strings.TrimSpace(r.Header.Get("Sec-Fetch-Site"))) {
	case "", "same-origin", "none":
	default:
		return false
	}
	if origin := strings.TrimSpace(r.Header.Get("Origin")); origin != "" {
		return sameOrigin(origin, r)
	}
	if referer := strings.TrimSpace(r.Referer()); referer != "" {
		return sameOrigin(referer, r)
	}
	return false
}

func sameOrigin(rawURL string, r *http.Request) bool {
	if rawURL == "null" {
		return false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}
	if !strings.EqualFold(parsed.Host, r.Host) {
		return false
	}
	return strings.EqualFold(parsed.Scheme, requestScheme(r))
}

func requestScheme(r *http.Request) string {
	if proto := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); proto != "" {
		first, _, _ := strings.Cut(proto, ",")
		return strings.ToLower(strings.TrimSpace(first))
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
