package chi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reelsearch/internal/domain"
	"github.com/kailas-cloud/reelsearch/internal/domain/catalog"
	"github.com/kailas-cloud/reelsearch/internal/domain/search/request"
	"github.com/kailas-cloud/reelsearch/internal/domain/search/result"
	"github.com/kailas-cloud/reelsearch/internal/metrics"
	searchuc "github.com/kailas-cloud/reelsearch/internal/usecase/search"
)

// Stream message types.
const (
	MessageSource = "source"
	MessageMatch  = "match"
	MessageDone   = "done"
	MessageError  = "error"
)

// Stream outcomes recorded in metrics.
const (
	outcomeDone       = "done"
	outcomeError      = "error"
	outcomeClientGone = "client_gone"
)

const (
	streamRequestTimeout = 30 * time.Second
	streamWriteTimeout   = 10 * time.Second
	streamMaxRequest     = 4096
)

// StreamRequest is the single message a client sends after connecting.
type StreamRequest struct {
	SeedID    string   `json:"dvd_id"`
	TopK      *int     `json:"top_k,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
}

// StreamMessage is one server-to-client message.
type StreamMessage struct {
	Type    string `json:"type"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
}

// SimilarStream handles GET /ws/similar. One similarity request is served per
// connection: source, then matches as they are scored, then done or error.
func (s *Server) SimilarStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	logger := s.logger.With(
		zap.String("session_id", uuid.NewString()),
		zap.String("request_id", chiMiddleware.GetReqID(r.Context())),
	)

	// The request context of a hijacked connection does not end on disconnect;
	// the read loop below cancels it instead.
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	conn.SetReadLimit(streamMaxRequest)
	_ = conn.SetReadDeadline(time.Now().Add(streamRequestTimeout))
	var req StreamRequest
	if err := conn.ReadJSON(&req); err != nil {
		logger.Info("similar stream: no request received", zap.Error(err))
		metrics.SimilarStreamsTotal.WithLabelValues(outcomeClientGone).Inc()
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	limit, thr := s.opts.DefaultLimit, s.opts.DefaultThreshold
	if req.TopK != nil {
		limit = *req.TopK
	}
	if req.Threshold != nil {
		thr = *req.Threshold
	}
	sim := request.NewSimilar(req.SeedID, limit, thr)
	logger.Info("similar stream started",
		zap.String("seed", sim.SeedID()),
		zap.Int("limit", sim.Limit()),
		zap.Float64("threshold", sim.Threshold()),
	)

	start := time.Now()
	emit := &wsEmitter{conn: conn}
	count, err := s.search.Similar(ctx, sim, emit)

	switch {
	case err == nil:
		err = emit.write(StreamMessage{Type: MessageDone, Count: &count})
		if err == nil {
			metrics.SimilarStreamsTotal.WithLabelValues(outcomeDone).Inc()
			logger.Info("similar stream done", zap.Int("count", count), zap.Duration("latency", time.Since(start)))
			closeNormally(conn)
			return
		}
		fallthrough
	case searchuc.IsClientGone(err) || ctx.Err() != nil || isConnError(err):
		metrics.SimilarStreamsTotal.WithLabelValues(outcomeClientGone).Inc()
		logger.Info("similar stream abandoned by client", zap.Int("sent", count), zap.Error(err))
	default:
		metrics.SimilarStreamsTotal.WithLabelValues(outcomeError).Inc()
		logger.Warn("similar stream failed", zap.Int("sent", count), zap.Error(err))
		_ = emit.write(StreamMessage{Type: MessageError, Message: streamErrorMessage(sim.SeedID(), err)})
		closeNormally(conn)
	}
}

// wsEmitter writes stream messages as the search service produces them.
type wsEmitter struct {
	conn *websocket.Conn
}

var _ searchuc.Emitter = (*wsEmitter)(nil)

func (e *wsEmitter) Source(_ context.Context, seed catalog.Record) error {
	return e.write(StreamMessage{Type: MessageSource, Data: recordToData(seed)})
}

func (e *wsEmitter) Match(_ context.Context, r result.Ranked) error {
	if err := e.write(StreamMessage{Type: MessageMatch, Data: rankedToItem(r)}); err != nil {
		return err
	}
	metrics.SimilarStreamMatchesTotal.Inc()
	return nil
}

func (e *wsEmitter) write(m StreamMessage) error {
	_ = e.conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	if err := e.conn.WriteJSON(m); err != nil {
		return &connError{err: err}
	}
	return nil
}

// connError marks a failed write to the client.
type connError struct{ err error }

func (e *connError) Error() string { return "websocket write: " + e.err.Error() }
func (e *connError) Unwrap() error { return e.err }

func isConnError(err error) bool {
	var ce *connError
	return errors.As(err, &ce)
}

func closeNormally(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

func streamErrorMessage(seed string, err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Sprintf("%q not found in index", seed)
	case errors.Is(err, domain.ErrMissingVector):
		return fmt.Sprintf("%q has no vector", seed)
	}
	return safeDomainMessage(err)
}

// originChecker allows same-host requests and the configured origins.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if slices.Contains(allowed, origin) {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}
