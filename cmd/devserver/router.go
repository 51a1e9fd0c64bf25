package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/url"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// ProxyHandler is the signature shared by every Lambda handler.
type ProxyHandler func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

type Handlers struct {
	Welcome         ProxyHandler
	CreateUser      ProxyHandler
	UsersByInterest ProxyHandler
	Recommendations ProxyHandler
}

// NewRouter mounts the handlers on the same routes the HTTP API exposes.
func NewRouter(h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/hello", proxy(h.Welcome))
	r.Post("/users", proxy(h.CreateUser))
	r.Get("/users/interest/{interest}", proxy(h.UsersByInterest))
	r.Post("/recommendations", proxy(h.Recommendations))
	return r
}

// proxy translates an HTTP request into an API Gateway proxy event and the
// handler's response back into HTTP.
func proxy(fn ProxyHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}

		resp, err := fn(r.Context(), toProxyRequest(r, body))
		if err != nil {
			log.Printf("ERROR: handler returned error: %v", err)
			http.Error(w, `{"message":"Internal server error"}`, http.StatusBadGateway)
			return
		}

		for k, v := range resp.Headers {
			w.Header().Set(k, v)
		}
		w.WriteHeader(resp.StatusCode)
		if _, err := io.WriteString(w, resp.Body); err != nil {
			log.Printf("ERROR: failed to write response: %v", err)
		}
	}
}

func toProxyRequest(r *http.Request, body []byte) events.APIGatewayProxyRequest {
	req := events.APIGatewayProxyRequest{
		HTTPMethod: r.Method,
		Path:       r.URL.Path,
		Headers:    map[string]string{},
		Body:       string(body),
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID: middleware.GetReqID(r.Context()),
		},
	}
	for k := range r.Header {
		req.Headers[k] = r.Header.Get(k)
	}
	if q := r.URL.Query(); len(q) > 0 {
		req.QueryStringParameters = make(map[string]string, len(q))
		for k := range q {
			req.QueryStringParameters[k] = q.Get(k)
		}
	}
	if rctx := chi.RouteContext(r.Context()); rctx != nil && len(rctx.URLParams.Keys) > 0 {
		req.PathParameters = make(map[string]string, len(rctx.URLParams.Keys))
		// chi matches on RawPath when it is set, leaving params escaped;
		// otherwise they are already decoded.
		for i, k := range rctx.URLParams.Keys {
			v := rctx.URLParams.Values[i]
			if r.URL.RawPath != "" {
				if unescaped, err := url.PathUnescape(v); err == nil {
					v = unescaped
				}
			}
			req.PathParameters[k] = v
		}
	}
	return req
}
