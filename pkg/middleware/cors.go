package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

var (
	defaultAllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	defaultAllowedHeaders = []string{"Accept", "Accept-Language", "Content-Type", CorrelationIDHeader, SessionIDHeader}
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins lists exact origins ("https://shop.example") or
	// subdomain patterns ("https://*.shop.example"). "*" allows any origin.
	AllowedOrigins []string

	// AllowedMethods defaults to GET, POST, PUT, DELETE, OPTIONS.
	AllowedMethods []string

	// AllowedHeaders defaults to Accept, Accept-Language, Content-Type,
	// X-Correlation-ID and X-Session-ID.
	AllowedHeaders []string

	// ExposedHeaders is the list of headers the browser may read.
	ExposedHeaders []string

	// MaxAge is how long, in seconds, preflight results may be cached.
	// Defaults to 3600.
	MaxAge int

	// AllowCredentials lets browsers send cookies cross-origin. Ignored
	// with a wildcard origin.
	AllowCredentials bool

	// Environment "development" allows any origin.
	Environment string
}

// DefaultCORSConfig returns a permissive configuration for development.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: defaultAllowedMethods,
		AllowedHeaders: defaultAllowedHeaders,
		ExposedHeaders: []string{CorrelationIDHeader},
		MaxAge:         3600,
		Environment:    "development",
	}
}

// corsPolicy is a CORSConfig compiled into header values and origin
// matchers.
type corsPolicy struct {
	anyOrigin   bool
	exact       map[string]struct{}
	suffixes    []originSuffix
	credentials bool

	methods string
	headers string
	exposed string
	maxAge  string
}

// originSuffix matches "scheme://<anything>.domain".
type originSuffix struct {
	scheme string
	domain string
}

func compileCORS(cfg CORSConfig) corsPolicy {
	if len(cfg.AllowedMethods) == 0 {
		cfg.AllowedMethods = defaultAllowedMethods
	}
	if len(cfg.AllowedHeaders) == 0 {
		cfg.AllowedHeaders = defaultAllowedHeaders
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 3600
	}

	p := corsPolicy{
		anyOrigin: cfg.Environment == "development",
		exact:     make(map[string]struct{}, len(cfg.AllowedOrigins)),
		methods:   strings.Join(cfg.AllowedMethods, ", "),
		headers:   strings.Join(cfg.AllowedHeaders, ", "),
		exposed:   strings.Join(cfg.ExposedHeaders, ", "),
		maxAge:    strconv.Itoa(cfg.MaxAge),
	}
	for _, o := range cfg.AllowedOrigins {
		switch {
		case o == "*":
			p.anyOrigin = true
		case strings.Contains(o, "://*."):
			scheme, domain, _ := strings.Cut(o, "://*")
			p.suffixes = append(p.suffixes, originSuffix{scheme: scheme + "://", domain: domain})
		default:
			p.exact[o] = struct{}{}
		}
	}
	p.credentials = cfg.AllowCredentials && !p.anyOrigin
	return p
}

func (p corsPolicy) allows(origin string) bool {
	if _, ok := p.exact[origin]; ok {
		return true
	}
	for _, s := range p.suffixes {
		if strings.HasPrefix(origin, s.scheme) && strings.HasSuffix(origin, s.domain) &&
			len(origin) > len(s.scheme)+len(s.domain) {
			return true
		}
	}
	return false
}

// CORS answers preflight requests and sets Cross-Origin Resource Sharing
// headers on every response.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	p := compileCORS(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			origin := r.Header.Get("Origin")

			switch {
			case p.anyOrigin:
				h.Set("Access-Control-Allow-Origin", "*")
			case origin != "" && p.allows(origin):
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Vary", "Origin")
				if p.credentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}

			h.Set("Access-Control-Allow-Methods", p.methods)
			h.Set("Access-Control-Allow-Headers", p.headers)
			if p.exposed != "" {
				h.Set("Access-Control-Expose-Headers", p.exposed)
			}
			h.Set("Access-Control-Max-Age", p.maxAge)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
