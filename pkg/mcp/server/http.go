package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	// Packages
	uuid "github.com/google/uuid"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	zerolog "github.com/rs/zerolog"
)

///////////////////////////////////////////////////////////////////////
// TYPES

// session is an open event stream, which receives the responses to
// messages posted with its identifier
type session struct {
	ctx context.Context
	ch  chan []byte
}

var _ http.Handler = (*Server)(nil)

///////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	// Path, relative to the stream, where messages are posted
	MessagePath = "/message"

	// Event names
	EventEndpoint = "endpoint"
	EventMessage  = "message"

	// Maximum size of a posted message
	maxMessageSize = 4 << 20
)

///////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ServeHTTP implements the SSE transport. A GET request opens an event
// stream which first announces the message endpoint. Messages are posted
// to the endpoint and the responses are sent on the stream. Posting to
// the stream path is not allowed, so clients which try the streamable
// transport first will fall back.
func (server *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasSuffix(r.URL.Path, MessagePath):
		if r.Method != http.MethodPost {
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
			return
		}
		server.serveMessage(w, r)
	case r.Method == http.MethodGet:
		server.serveStream(w, r)
	default:
		_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
	}
}

// Sessions returns the number of open event streams
func (server *Server) Sessions() int {
	server.mu.RLock()
	defer server.mu.RUnlock()
	return len(server.sessions)
}

///////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (server *Server) serveStream(w http.ResponseWriter, r *http.Request) {
	stream := httpresponse.NewTextStream(w)
	if stream == nil {
		_ = httpresponse.Error(w, httpresponse.ErrInternalError)
		return
	}
	defer stream.Close()

	// Register the session
	id := uuid.NewString()
	s := &session{ctx: r.Context(), ch: make(chan []byte, 16)}
	server.mu.Lock()
	server.sessions[id] = s
	server.mu.Unlock()
	defer func() {
		server.mu.Lock()
		delete(server.sessions, id)
		server.mu.Unlock()
	}()

	log := zerolog.Ctx(r.Context())
	log.Debug().Str("session", id).Msg("sse session opened")
	defer log.Debug().Str("session", id).Msg("sse session closed")

	// Announce the endpoint for messages
	endpoint := strings.TrimSuffix(r.URL.Path, "/") + MessagePath + "?sessionId=" + url.QueryEscape(id)
	stream.Write(EventEndpoint, endpoint)

	// Send responses until the client goes away
	for {
		select {
		case <-r.Context().Done():
			return
		case data := <-s.ch:
			stream.Write(EventMessage, json.RawMessage(data))
		}
	}
}

func (server *Server) serveMessage(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("sessionId")
	server.mu.RLock()
	s, exists := server.sessions[id]
	server.mu.RUnlock()
	if !exists {
		_ = httpresponse.Error(w, httpresponse.Err(http.StatusNotFound), "session not found")
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxMessageSize))
	if err != nil {
		_ = httpresponse.Error(w, httpresponse.ErrBadRequest.With(err))
		return
	}

	// The response is sent on the stream, so the message is processed
	// in the context of the stream rather than this request
	ctx := zerolog.Ctx(r.Context()).WithContext(s.ctx)
	go func() {
		response, err := server.processRequest(ctx, data)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("mcp response")
			return
		} else if response == nil {
			return
		}
		select {
		case s.ch <- response:
		case <-s.ctx.Done():
		}
	}()

	w.WriteHeader(http.StatusAccepted)
}
