// Package router wires the HTTP surface of the exercise tracker: thin
// request/response mapping over the service layer, plus logging and
// gzip middleware.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/patric-chuzhbe/fitlog/internal/gzippedhttp"
	"github.com/patric-chuzhbe/fitlog/internal/logger"
	"github.com/patric-chuzhbe/fitlog/internal/models"
	"github.com/patric-chuzhbe/fitlog/internal/service"
)

type exerciseTracker interface {
	CreateOrGetUser(ctx context.Context, username string) (*models.User, error)

	ListUsers(ctx context.Context) ([]models.UserView, error)

	AppendExercise(
		ctx context.Context,
		userID,
		description,
		durationRaw,
		dateRaw string,
	) (*models.ExerciseView, error)

	GetLogs(
		ctx context.Context,
		userID,
		fromRaw,
		toRaw,
		limitRaw string,
	) (*models.LogView, error)

	GetInternalStats(ctx context.Context) (models.InternalStatsResponse, error)

	Ping(ctx context.Context) error
}

type clientIPChecker interface {
	Check(clientIP net.IP) bool
	GetClientIP(request *http.Request) (net.IP, error)
}

// Router maps HTTP requests onto the exercise tracker service.
type Router struct {
	svc       exerciseTracker
	ipChecker clientIPChecker
}

// New builds the chi mux with all routes and middleware attached.
func New(svc exerciseTracker, ipChecker clientIPChecker) *chi.Mux {
	handlers := &Router{
		svc:       svc,
		ipChecker: ipChecker,
	}

	router := chi.NewRouter()
	router.Use(logger.WithLoggingHTTPMiddleware)
	router.Use(gzippedhttp.UngzipRequest)
	router.Use(gzippedhttp.GzipResponse)

	router.Get(`/ping`, handlers.GetPing)
	router.Route(`/api`, func(r chi.Router) {
		r.Post(`/users`, handlers.PostAPIUsers)
		r.Get(`/users`, handlers.GetAPIUsers)
		r.Post(`/users/{userID}/exercises`, handlers.PostAPIUserExercises)
		r.Get(`/users/{userID}/logs`, handlers.GetAPIUserLogs)
		r.Get(`/internal/stats`, handlers.GetAPIInternalStats)
	})

	return router
}

func writeJSON(res http.ResponseWriter, statusCode int, payload interface{}) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(statusCode)
	if err := json.NewEncoder(res).Encode(payload); err != nil {
		logger.Log.Errorln("failed to encode response:", err)
	}
}

func writeError(res http.ResponseWriter, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeJSON(res, http.StatusBadRequest, models.ErrorResponse{Error: validationErr.Error()})

	case errors.Is(err, service.ErrUserNotFound):
		writeJSON(res, http.StatusNotFound, models.ErrorResponse{Error: service.ErrUserNotFound.Error()})

	default:
		logger.Log.Errorln("internal error:", err)
		writeJSON(res, http.StatusInternalServerError, models.ErrorResponse{Error: "internal server error"})
	}
}

// PostAPIUsers handles POST /api/users. It creates a user for an unseen
// username and returns the already existing record otherwise.
func (rtr *Router) PostAPIUsers(res http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		writeJSON(res, http.StatusBadRequest, models.ErrorResponse{Error: "malformed form data"})
		return
	}

	usr, err := rtr.svc.CreateOrGetUser(req.Context(), req.PostFormValue("username"))
	if err != nil {
		writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, models.UserView{
		Username: usr.Username,
		ID:       usr.ID,
	})
}

// GetAPIUsers handles GET /api/users and returns every user in
// insertion order.
func (rtr *Router) GetAPIUsers(res http.ResponseWriter, req *http.Request) {
	users, err := rtr.svc.ListUsers(req.Context())
	if err != nil {
		writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, users)
}

// PostAPIUserExercises handles POST /api/users/{userID}/exercises.
func (rtr *Router) PostAPIUserExercises(res http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		writeJSON(res, http.StatusBadRequest, models.ErrorResponse{Error: "malformed form data"})
		return
	}

	view, err := rtr.svc.AppendExercise(
		req.Context(),
		chi.URLParam(req, "userID"),
		req.PostFormValue("description"),
		req.PostFormValue("duration"),
		req.PostFormValue("date"),
	)
	if err != nil {
		writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, view)
}

// GetAPIUserLogs handles GET /api/users/{userID}/logs with the optional
// from, to and limit query parameters.
func (rtr *Router) GetAPIUserLogs(res http.ResponseWriter, req *http.Request) {
	query := req.URL.Query()

	logView, err := rtr.svc.GetLogs(
		req.Context(),
		chi.URLParam(req, "userID"),
		query.Get("from"),
		query.Get("to"),
		query.Get("limit"),
	)
	if err != nil {
		writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, logView)
}

// GetPing handles GET /ping and reports storage health.
func (rtr *Router) GetPing(res http.ResponseWriter, req *http.Request) {
	if err := rtr.svc.Ping(req.Context()); err != nil {
		writeError(res, err)
		return
	}

	res.WriteHeader(http.StatusOK)
}

// GetAPIInternalStats handles GET /api/internal/stats. The endpoint is
// reachable only from the configured trusted subnet.
func (rtr *Router) GetAPIInternalStats(res http.ResponseWriter, req *http.Request) {
	clientIP, err := rtr.ipChecker.GetClientIP(req)
	if err != nil || !rtr.ipChecker.Check(clientIP) {
		writeJSON(res, http.StatusForbidden, models.ErrorResponse{Error: "forbidden"})
		return
	}

	stats, err := rtr.svc.GetInternalStats(req.Context())
	if err != nil {
		writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, stats)
}
