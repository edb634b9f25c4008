// Package replay answers requests that cannot be served in the current region
// with a fly-replay response header, so that the edge proxy re-issues them in
// the primary region where the writable database lives.
package replay

import (
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/multiregion/internal/api/response"
	"github.com/edvin/multiregion/internal/region"
)

// ThresholdCookie holds the unix time in milliseconds until which reads from
// this client are sent to the primary, so a client sees its own writes before the replicas
// have caught up.
const ThresholdCookie = "fly-replay-threshold"

// DefaultWriteMethods are replayed to the primary before reaching a handler.
var DefaultWriteMethods = []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

// LagSource reports the current replication lag of the local database.
// ok is false when no measurement is available.
type LagSource interface {
	Lag() (lag time.Duration, ok bool)
}

type Replayer struct {
	topology      *region.Topology
	logger        zerolog.Logger
	writeMethods  []string
	threshold     time.Duration
	lagSource     LagSource
	maxReplicaLag time.Duration
	now           func() time.Time
}

type Option func(*Replayer)

// WithWriteMethods sets the methods replayed to the primary up front. Passing
// no methods disables the check; handlers then rely on read-only errors.
func WithWriteMethods(methods ...string) Option {
	return func(rp *Replayer) { rp.writeMethods = methods }
}

// WithThreshold sets how long after a write the client's reads are served by
// the primary. Zero disables the cookie.
func WithThreshold(d time.Duration) Option {
	return func(rp *Replayer) { rp.threshold = d }
}

// WithMaxReplicaLag replays reads to the primary while src reports more lag
// than limit. A zero limit disables the check.
func WithMaxReplicaLag(src LagSource, limit time.Duration) Option {
	return func(rp *Replayer) {
		rp.lagSource = src
		rp.maxReplicaLag = limit
	}
}

// WithLogger sets the logger used when the request context carries none.
func WithLogger(logger zerolog.Logger) Option {
	return func(rp *Replayer) { rp.logger = logger }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(rp *Replayer) { rp.now = now }
}

func New(topology *region.Topology, opts ...Option) *Replayer {
	rp := &Replayer{
		topology:     topology,
		logger:       zerolog.Nop(),
		writeMethods: DefaultWriteMethods,
		threshold:    5 * time.Second,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(rp)
	}
	return rp
}

func (rp *Replayer) Topology() *region.Topology {
	return rp.topology
}

// Respond handles err if it was caused by writing to a read replica and
// reports whether it did. In a replica region the client is told to replay
// the request in the primary region. In the primary region there is nowhere
// to replay to, so the request fails with 503.
func (rp *Replayer) Respond(w http.ResponseWriter, r *http.Request, err error) bool {
	if !IsReadOnly(err) {
		return false
	}

	if rp.topology.IsPrimary() {
		primaryReadOnlyTotal.Inc()
		rp.log(r).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg(ErrPrimaryReadOnly.Error())
		response.WriteError(w, http.StatusServiceUnavailable, ErrPrimaryReadOnly.Error())
		return true
	}

	rp.replay(w, r, ReasonReadOnly)
	return true
}

// Middleware routes requests that must be served by the primary region and
// recovers read-only panics raised by downstream handlers.
func (rp *Replayer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rp.topology.IsPrimary() {
			if reason := rp.preflight(r); reason != "" {
				rp.replay(w, r, reason)
				return
			}
		}

		cw := &commitWriter{ResponseWriter: w}
		if rp.topology.IsPrimary() && rp.threshold > 0 && rp.isWrite(r.Method) {
			cw.onCommit = rp.setThreshold
		}

		// A response that is already on the wire cannot be turned into a
		// replay, so such panics propagate.
		defer func() {
			if v := recover(); v != nil {
				if err, ok := v.(error); ok && !cw.wroteHeader && rp.Respond(cw, r, err) {
					return
				}
				panic(v)
			}
		}()

		next.ServeHTTP(cw, r)
	})
}

// preflight returns the reason a request must go to the primary before any
// handler runs, or "" if it can be served locally.
func (rp *Replayer) preflight(r *http.Request) string {
	if rp.isWrite(r.Method) {
		return ReasonWriteMethod
	}

	if c, err := r.Cookie(ThresholdCookie); err == nil {
		if until, err := strconv.ParseInt(c.Value, 10, 64); err == nil && rp.now().UnixMilli() < until {
			return ReasonThreshold
		}
	}

	if rp.lagSource != nil && rp.maxReplicaLag > 0 {
		if lag, ok := rp.lagSource.Lag(); ok && lag > rp.maxReplicaLag {
			return ReasonLag
		}
	}

	return ""
}

func (rp *Replayer) isWrite(method string) bool {
	return slices.Contains(rp.writeMethods, method)
}

func (rp *Replayer) replay(w http.ResponseWriter, r *http.Request, reason string) {
	target := string(rp.topology.Primary)
	replaysTotal.WithLabelValues(reason, target).Inc()

	rp.log(r).Info().
		Str("reason", reason).
		Str("target_region", target).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("replaying request")

	w.Header().Set(HeaderName, Directive{Region: target}.String())
	response.WriteRegionError(w, http.StatusConflict, "replaying request in "+target, target)
}

func (rp *Replayer) setThreshold(h http.Header) {
	until := rp.now().Add(rp.threshold)
	c := &http.Cookie{
		Name:     ThresholdCookie,
		Value:    strconv.FormatInt(until.UnixMilli(), 10),
		Path:     "/",
		Expires:  until,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	h.Add("Set-Cookie", c.String())
}

func (rp *Replayer) log(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &rp.logger
}

// commitWriter records whether the response headers have been sent. When
// onCommit is set it runs just before a successful response is committed.
type commitWriter struct {
	http.ResponseWriter
	onCommit    func(http.Header)
	wroteHeader bool
}

func (w *commitWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		if w.onCommit != nil && status < http.StatusBadRequest {
			w.onCommit(w.ResponseWriter.Header())
		}
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *commitWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *commitWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
