package browser

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"time"
)

const callbackPath = "/callback"

// endpoint is the loopback server receiving the provider redirect
type endpoint struct {
	Port     int
	listener net.Listener
	server   *http.Server
}

func newEndpoint(port int, handler http.HandlerFunc) (*endpoint, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on callback port %v: %w", port, err)
	}
	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, handler)
	ret := &endpoint{
		Port:     listener.Addr().(*net.TCPAddr).Port,
		listener: listener,
		server:   &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second},
	}
	go func() {
		if err := ret.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = listener.Close()
		}
	}()
	return ret, nil
}

func (e *endpoint) redirectURI() string {
	return fmt.Sprintf("http://127.0.0.1:%v%v", e.Port, callbackPath)
}

func (e *endpoint) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return e.server.Shutdown(ctx)
}

func writePage(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, "<!doctype html><html><head><title>%s</title></head><body><h3>%s</h3><p>%s</p></body></html>",
		html.EscapeString(title), html.EscapeString(title), html.EscapeString(message))
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
