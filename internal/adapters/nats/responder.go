package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nats-io/nats.go"

	geojsonadapter "github.com/samirrijal/geocover/internal/adapters/geojson"
	"github.com/samirrijal/geocover/internal/core/domain"
	"github.com/samirrijal/geocover/internal/core/usecases"
	"github.com/samirrijal/geocover/internal/pkg/logging"
	"github.com/samirrijal/geocover/internal/pkg/metrics"
)

// Reply headers. A reply carrying ErrorCodeHeader holds an ErrorReply body
// instead of a coverage response.
const (
	ErrorCodeHeader = "Geocover-Error"
	StatusHeader    = "Geocover-Status"
)

// ErrorReply is the body of a failed request.
type ErrorReply struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CoverageComputer is the part of usecases.CoverageService the responder
// needs.
type CoverageComputer interface {
	Coverage(ctx context.Context, subject domain.GeoArea, candidates []domain.GeoArea) (*domain.AggregateCoverageResult, error)
}

// Responder answers coverage requests published on a NATS subject. Every
// replica joins the same queue group so each request is served once.
type Responder struct {
	conn *nats.Conn
	svc  CoverageComputer
	subs []*nats.Subscription
}

// NewResponder creates a responder on an existing connection.
func NewResponder(conn *nats.Conn, svc CoverageComputer) *Responder {
	return &Responder{conn: conn, svc: svc}
}

// Serve queue-subscribes to subject. Requests are handled on the NATS
// dispatch goroutine with ctx as their parent context.
func (r *Responder) Serve(ctx context.Context, subject, queue string) error {
	sub, err := r.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		if msg.Reply == "" {
			logging.LoggerFromCtx(ctx).Warn("coverage request without reply subject dropped", "subject", msg.Subject)
			return
		}
		data, status, code := r.Handle(ctx, msg.Data)

		resp := nats.NewMsg(msg.Reply)
		resp.Data = data
		resp.Header.Set(StatusHeader, strconv.Itoa(status))
		if code != "" {
			resp.Header.Set(ErrorCodeHeader, code)
		}
		if err := msg.RespondMsg(resp); err != nil {
			logging.LoggerFromCtx(ctx).Error("nats respond failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	r.subs = append(r.subs, sub)
	return nil
}

// Handle decodes a coverage request body, computes it and encodes the reply.
// status mirrors the HTTP status the same request would get; code is empty
// on success.
func (r *Responder) Handle(ctx context.Context, body []byte) (data []byte, status int, code string) {
	ctx = usecases.WithTransport(ctx, metrics.TransportNATS)

	subject, candidates, err := geojsonadapter.DecodeCoverageRequest(body)
	if err != nil {
		return errorReply(ctx, err)
	}
	res, err := r.svc.Coverage(ctx, subject, candidates)
	if err != nil {
		return errorReply(ctx, err)
	}

	data, err = json.Marshal(geojsonadapter.EncodeCoverage(res))
	if err != nil {
		return errorReply(ctx, err)
	}
	return data, 200, ""
}

func errorReply(ctx context.Context, err error) ([]byte, int, string) {
	code := domain.ErrorCode(err)
	status := StatusFor(code)
	msg := err.Error()
	if status >= 500 {
		logging.LoggerFromCtx(ctx).Error("coverage request failed", "error", err)
		msg = "internal error"
	}
	data, _ := json.Marshal(ErrorReply{Status: status, Code: code, Message: msg})
	return data, status, code
}

// StatusFor maps an error code to the HTTP status used across transports.
func StatusFor(code string) int {
	switch code {
	case domain.CodeMalformedInput:
		return 400
	case domain.CodeInvalidGeometryKind, domain.CodeTooManyCandidates:
		return 422
	default:
		return 500
	}
}

// Close unsubscribes and drains.
func (r *Responder) Close() {
	for _, sub := range r.subs {
		_ = sub.Unsubscribe()
	}
	_ = r.conn.Drain()
}
