package router

import (
	"bufio"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"
	"time"
)

// --- ANSI color codes ---
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

type HandlerFunc func(http.ResponseWriter, *http.Request)

// Router is a small method:path router with wildcard segments. A "*"
// segment matches one path segment; a trailing "*" matches the rest of the
// path. Every request is logged with method, status, and duration.
type Router struct {
	routes []route
}

type route struct {
	method  string
	pattern string
	handler HandlerFunc
}

func New() *Router {
	return &Router{}
}

func (r *Router) register(method, pattern string, handler HandlerFunc) {
	r.routes = append(r.routes, route{method: method, pattern: pattern, handler: handler})
}

func (r *Router) GET(pattern string, handler HandlerFunc)    { r.register(http.MethodGet, pattern, handler) }
func (r *Router) POST(pattern string, handler HandlerFunc)   { r.register(http.MethodPost, pattern, handler) }
func (r *Router) PUT(pattern string, handler HandlerFunc)    { r.register(http.MethodPut, pattern, handler) }
func (r *Router) DELETE(pattern string, handler HandlerFunc) { r.register(http.MethodDelete, pattern, handler) }

// ServeHTTP dispatches to the first matching route, in registration order,
// so more specific routes should be registered first.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

	var handler HandlerFunc
	pathMatched := false

	for _, rt := range r.routes {
		if !matchPattern(req.URL.Path, rt.pattern) {
			continue
		}
		pathMatched = true
		if rt.method == req.Method {
			handler = rt.handler
			break
		}
	}

	switch {
	case handler != nil:
		handler(lrw, req)
	case pathMatched:
		http.Error(lrw, "Method Not Allowed", http.StatusMethodNotAllowed)
	default:
		http.Error(lrw, "Not Found", http.StatusNotFound)
	}

	duration := time.Since(start)
	log.Printf("%s[%s]%s %s%s%s %s %s%d%s %s(%v)%s",
		colorCyan, start.Format("2006-01-02 15:04:05"), colorReset,
		methodColor(req.Method), req.Method, colorReset,
		req.URL.Path,
		statusColor(lrw.statusCode), lrw.statusCode, colorReset,
		colorBlue, duration, colorReset,
	)
}

// matchPattern checks a request path against a route pattern.
func matchPattern(requestPath, pattern string) bool {
	reqSegs := strings.Split(strings.Trim(requestPath, "/"), "/")
	patSegs := strings.Split(strings.Trim(pattern, "/"), "/")

	// Trailing "*" matches any number of remaining segments.
	if len(patSegs) > 0 && patSegs[len(patSegs)-1] == "*" {
		if len(reqSegs) < len(patSegs)-1 {
			return false
		}
		for i := 0; i < len(patSegs)-1; i++ {
			if patSegs[i] != "*" && patSegs[i] != reqSegs[i] {
				return false
			}
		}
		return true
	}

	if len(reqSegs) != len(patSegs) {
		return false
	}
	for i, seg := range patSegs {
		if seg != "*" && seg != reqSegs[i] {
			return false
		}
	}
	return true
}

// Start runs the server.
func (r *Router) Start(addr string) {
	log.Printf("🚀 Server started on %shttp://localhost%s%s", colorGreen, addr, colorReset)
	log.Fatal(http.ListenAndServe(addr, r))
}

// --- Logging response writer to capture status codes ---
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// Hijack passes through to the underlying writer so websocket upgrades work.
func (lrw *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := lrw.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}
	return nil, nil, errors.New("hijacking not supported")
}

// --- Color helpers ---
func statusColor(code int) string {
	switch {
	case code >= 200 && code < 300:
		return colorGreen
	case code >= 300 && code < 400:
		return colorCyan
	case code >= 400 && code < 500:
		return colorYellow
	default:
		return colorRed
	}
}

func methodColor(method string) string {
	switch method {
	case http.MethodGet:
		return colorGreen
	case http.MethodPost:
		return colorBlue
	case http.MethodPut:
		return colorYellow
	case http.MethodDelete:
		return colorRed
	default:
		return colorCyan
	}
}
