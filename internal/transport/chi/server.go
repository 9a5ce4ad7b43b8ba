package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/mastplan/internal/domain"
	domcheck "github.com/kailas-cloud/mastplan/internal/domain/check"
	"github.com/kailas-cloud/mastplan/internal/domain/search/filter"
	"github.com/kailas-cloud/mastplan/internal/domain/search/request"
	"github.com/kailas-cloud/mastplan/internal/domain/sky"
	checkuc "github.com/kailas-cloud/mastplan/internal/usecase/check"
	healthuc "github.com/kailas-cloud/mastplan/internal/usecase/health"
	resolveuc "github.com/kailas-cloud/mastplan/internal/usecase/resolve"
	searchuc "github.com/kailas-cloud/mastplan/internal/usecase/search"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// callsPerTarget is the worst case archive calls for one check target: lookup, count, fetch.
const callsPerTarget = 3

// checkWriteSlack covers encoding and writing the check report.
const checkWriteSlack = 10 * time.Second

// CheckWriteDeadline bounds how long a check over targets may run when every
// archive call is capped at perCall.
func CheckWriteDeadline(targets int, perCall time.Duration) time.Duration {
	return time.Duration(targets*callsPerTarget)*perCall + checkWriteSlack
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the mastplan HTTP API.
type Server struct {
	resolve       *resolveuc.Service
	search        *searchuc.Service
	check         *checkuc.Service
	health        *healthuc.Service
	defaultRadius float64
	checkBudget   time.Duration
	validate      *validator.Validate
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
// defaultRadiusArcsec is used when a request omits radius_arcsec.
func NewServer(
	resolve *resolveuc.Service,
	search *searchuc.Service,
	check *checkuc.Service,
	health *healthuc.Service,
	defaultRadiusArcsec float64,
	logger *zap.Logger,
) *Server {
	s := &Server{
		resolve:       resolve,
		search:        search,
		check:         check,
		health:        health,
		defaultRadius: defaultRadiusArcsec,
		validate:      validator.New(),
		logger:        logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNameNotResolved, http.StatusNotFound, ErrorCodeNameNotResolved),
		filterSpecHandler,
		sentinelHandler(domain.ErrInvalidName, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrInvalidPosition, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrServiceUnavailable, http.StatusServiceUnavailable, ErrorCodeServiceUnavailable),
		sentinelHandler(domain.ErrMalformedResponse, http.StatusBadGateway, ErrorCodeMalformedResponse),
	}
	return s
}

// WithCheckCallBudget sets the per archive call cap used to extend the write
// deadline of POST /v1/check past the server-wide WriteTimeout.
func (s *Server) WithCheckCallBudget(perCall time.Duration) *Server {
	s.checkBudget = perCall
	return s
}

// Resolve handles GET /v1/resolve?name=.
func (s *Server) Resolve(w http.ResponseWriter, r *http.Request) {
	var name string
	if !bindQuery(w, r, "name", true, &name) {
		return
	}

	res, err := s.resolve.ResolveDetailed(r.Context(), name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resolutionToDTO(&res))
}

// SearchQuery handles GET /v1/search with default filters.
func (s *Server) SearchQuery(w http.ResponseWriter, r *http.Request) {
	var (
		target       *string
		ra, dec      *float64
		radiusArcsec *float64
		countOnly    *bool
	)
	if !bindQuery(w, r, "target", false, &target) ||
		!bindQuery(w, r, "ra", false, &ra) ||
		!bindQuery(w, r, "dec", false, &dec) ||
		!bindQuery(w, r, "radius_arcsec", false, &radiusArcsec) ||
		!bindQuery(w, r, "count_only", false, &countOnly) {
		return
	}

	req := SearchRequest{RA: ra, Dec: dec, RadiusArcsec: radiusArcsec}
	if target != nil {
		req.Target = *target
	}
	if countOnly != nil {
		req.CountOnly = *countOnly
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, validationMessage(err))
		return
	}

	s.runSearch(r.Context(), w, &req, nil)
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	filters, err := filtersFromDTO(req.Filters)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	s.runSearch(r.Context(), w, &req, filters)
}

// runSearch resolves the target if given, then runs the count-first search.
func (s *Server) runSearch(ctx context.Context, w http.ResponseWriter, req *SearchRequest, filters *filter.Spec) {
	var (
		pos    sky.Position
		target *ResolveResponse
		err    error
	)
	switch {
	case req.Target != "":
		res, rerr := s.resolve.ResolveDetailed(ctx, req.Target)
		if rerr != nil {
			s.handleDomainError(w, rerr)
			return
		}
		dto := resolutionToDTO(&res)
		target, pos = &dto, res.Position
	case req.RA != nil && req.Dec != nil:
		if pos, err = sky.NewPosition(*req.RA, *req.Dec); err != nil {
			s.handleDomainError(w, err)
			return
		}
	default:
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "either target or both ra and dec are required")
		return
	}

	radius := s.defaultRadius
	if req.RadiusArcsec != nil {
		radius = *req.RadiusArcsec
	}

	searchReq, err := request.New(pos, radius, filters, req.CountOnly)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	res, err := s.search.Search(ctx, &searchReq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := resultToDTO(&res, pos, radius)
	resp.Target = target
	writeJSON(w, http.StatusOK, resp)
}

// Check handles POST /v1/check.
func (s *Server) Check(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	filters, err := filtersFromDTO(req.Filters)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	radius := s.defaultRadius
	if req.RadiusArcsec != nil {
		radius = *req.RadiusArcsec
	}

	if s.checkBudget > 0 {
		deadline := time.Now().Add(CheckWriteDeadline(len(req.Targets), s.checkBudget))
		if err := http.NewResponseController(w).SetWriteDeadline(deadline); err != nil {
			s.logger.Warn("Failed to extend check write deadline", zap.Error(err))
		}
	}

	report, err := s.check.Run(r.Context(), req.Targets, radius, filters, req.CountOnly)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := CheckResponse{
		RunID:        report.RunID,
		RadiusArcsec: report.RadiusArcsec,
		Planned:      report.Count(domcheck.StatusPlanned),
		Clear:        report.Count(domcheck.StatusClear),
		Errors:       report.Count(domcheck.StatusError),
		Items:        make([]CheckItem, len(report.Outcomes)),
	}
	for i := range report.Outcomes {
		resp.Items[i] = checkItemToDTO(&report.Outcomes[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	latency := make(map[string]int64, len(report.Latency))
	for k, v := range report.Latency {
		latency[k] = v.Milliseconds()
	}
	for k, err := range report.Errors {
		s.logger.Warn("Health check failed", zap.String("check", k), zap.Error(err))
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:    string(report.Status),
		Checks:    checks,
		LatencyMs: latency,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// decodeBody reads and validates a JSON body. Writes a 400 and returns false on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, validationMessage(err))
		return false
	}
	return true
}

// bindQuery binds one form-style query parameter. Writes a 400 and returns false on failure.
func bindQuery(w http.ResponseWriter, r *http.Request, name string, required bool, dst any) bool {
	if err := runtime.BindQueryParameter("form", true, required, name, r.URL.Query(), dst); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest,
			fmt.Sprintf("Invalid format for parameter %s: %s", name, err.Error()))
		return false
	}
	return true
}

// validationMessage flattens validator errors into one line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, len(verrs))
	for i, fe := range verrs {
		if fe.Param() != "" {
			parts[i] = fmt.Sprintf("%s must satisfy %s=%s", fe.Namespace(), fe.Tag(), fe.Param())
		} else {
			parts[i] = fmt.Sprintf("%s is %s", fe.Namespace(), fe.Tag())
		}
	}
	return strings.Join(parts, "; ")
}

func checkItemToDTO(o *domcheck.Outcome) CheckItem {
	item := CheckItem{Target: o.Target(), Status: string(o.Status())}
	if o.Status() == domcheck.StatusError {
		code, msg := errorCodeFor(o.Err())
		item.Error = &ErrorResponse{Code: code, Message: msg}
		return item
	}
	res := o.Resolution()
	pos := positionToDTO(res.Position)
	r := o.Result()
	count := r.Count()
	item.CanonicalName = res.CanonicalName
	item.Position = &pos
	item.Count = &count
	item.Branch = string(r.Branch())
	return item
}

// errorCodeFor maps a per-target error to a code and a client-safe message.
func errorCodeFor(err error) (ErrorCode, string) {
	switch {
	case errors.Is(err, domain.ErrNameNotResolved):
		return ErrorCodeNameNotResolved, domain.ErrNameNotResolved.Error()
	case errors.Is(err, domain.ErrInvalidFilterSpec):
		return ErrorCodeInvalidFilterSpec, domain.ErrInvalidFilterSpec.Error()
	case errors.Is(err, domain.ErrInvalidName), errors.Is(err, domain.ErrInvalidPosition):
		return ErrorCodeValidationFailed, safeDomainMessage(err)
	case errors.Is(err, domain.ErrServiceUnavailable):
		return ErrorCodeServiceUnavailable, domain.ErrServiceUnavailable.Error()
	case errors.Is(err, domain.ErrMalformedResponse):
		return ErrorCodeMalformedResponse, domain.ErrMalformedResponse.Error()
	default:
		return ErrorCodeInternalError, "internal error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNameNotResolved,
		domain.ErrInvalidFilterSpec,
		domain.ErrInvalidName,
		domain.ErrInvalidPosition,
		domain.ErrServiceUnavailable,
		domain.ErrMalformedResponse,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// filterSpecHandler surfaces the archive's rejection text, or the local validation message.
func filterSpecHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrInvalidFilterSpec) {
		return false
	}
	var se *domain.ServiceError
	switch {
	case errors.As(err, &se) && se.Msg != "":
		msg = msg + ": " + se.Msg
	case !errors.As(err, &se):
		msg = err.Error()
	}
	writeError(w, http.StatusBadRequest, ErrorCodeInvalidFilterSpec, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
