package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	errorvalues "github.com/limbo/lumi/internal/error_values"
	"github.com/limbo/lumi/internal/service"
	"github.com/limbo/lumi/pkg/entity"
	"github.com/limbo/lumi/pkg/httputil"
)

const requestTimeout = time.Second * 10

type ProfileRequest struct {
	Profile *entity.Profile `json:"profile"`
}

type WaterRequest struct {
	// Defaults to one glass
	Glasses *int `json:"glasses"`
}

type MealRequest struct {
	Meal *service.MealRequest `json:"meal"`
}

type HistoryResponse struct {
	History []entity.DailyProgress `json:"history"`
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"status": "ok",
	})
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var req service.RegisterRequest
	err := httputil.DecodeJSON(w, r, &req)
	if err != nil {
		logger.Error("registering error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	user, err := s.userService.Register(ctx, &req)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrUserExists):
			logger.Error("registering error: existed user")
			httputil.WriteErrorResponse(w, http.StatusConflict, "user with such email already exists", nil)
		case errors.Is(err, errorvalues.ErrValidation):
			logger.Error("registering error: invalid request", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid signup data", err)
		default:
			logger.Error("registering error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error during registration", nil)
		}
		return
	}
	httputil.WriteJSONResponse(w, http.StatusCreated, map[string]any{
		"success": true,
		"userId":  user.ID.String(),
	})
	logger.Info("successful registration")
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	var req service.LoginRequest
	err := httputil.DecodeJSON(w, r, &req)
	if err != nil {
		logger.Error("login error: invalid body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	user, err := s.userService.Login(ctx, &req)
	if err != nil {
		switch {
		case errors.Is(err, errorvalues.ErrValidation):
			logger.Error("login error: invalid request")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "email and password are required", err)
		case errors.Is(err, errorvalues.ErrWrongCredentials):
			logger.Error("login error: wrong credentials")
			httputil.WriteErrorResponse(w, http.StatusUnauthorized, "invalid email or password", nil)
		default:
			logger.Error("login error: service error", slog.String("error", err.Error()))
			httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error during login", nil)
		}
		return
	}
	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		logger.Error("login error: generating token error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "error creating token", nil)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"uid":   user.ID.String(),
		"token": token,
	})
	logger.Info("successful login")
}

func (s *Server) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("upsert profile error: unauthorized")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return
	}
	var req ProfileRequest
	err = httputil.DecodeJSON(w, r, &req)
	if err != nil || req.Profile == nil {
		logger.Error("upsert profile error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "profile is required", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	needs, err := s.userService.UpsertProfile(ctx, uid, *req.Profile)
	if err != nil {
		s.writeServiceError(w, logger, "upsert profile", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"userId":  uid.String(),
		"needs":   needs,
	})
	logger.Info("profile updated")
}

func (s *Server) GetUser(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, ok := s.ownedUserID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	user, err := s.userService.GetByID(ctx, uid)
	if err != nil {
		s.writeServiceError(w, logger, "get user", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"user": user.Public(),
	})
}

func (s *Server) AddWater(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, ok := s.ownedUserID(w, r)
	if !ok {
		return
	}
	var req WaterRequest
	// an empty body means one glass
	if err := httputil.DecodeJSON(w, r, &req); err != nil && !errors.Is(err, httputil.ErrEmptyBody) {
		logger.Error("add water error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	glasses := 1
	if req.Glasses != nil {
		glasses = *req.Glasses
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	total, err := s.trackingService.AddWater(ctx, uid, glasses)
	if err != nil {
		s.writeServiceError(w, logger, "add water", err)
		return
	}
	if s.metrics != nil {
		s.metrics.WaterGlasses.Add(float64(glasses))
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"success":      true,
		"waterGlasses": total,
	})
	logger.Info("water added", slog.Int("glasses", glasses))
}

func (s *Server) RecordMeal(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, ok := s.ownedUserID(w, r)
	if !ok {
		return
	}
	var req MealRequest
	err := httputil.DecodeJSON(w, r, &req)
	if err != nil || req.Meal == nil {
		logger.Error("record meal error: invalid request body")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "meal data is required", nil)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	rec, err := s.trackingService.RecordMeal(ctx, uid, req.Meal)
	if err != nil {
		s.writeServiceError(w, logger, "record meal", err)
		return
	}
	if s.metrics != nil {
		s.metrics.MealsRecorded.WithLabelValues(string(req.Meal.Type)).Inc()
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"success":      true,
		"totalProtein": rec.TotalProtein,
		"totalFiber":   rec.TotalFiber,
	})
	logger.Info("meal recorded", slog.String("slot", string(req.Meal.Type)))
}

func (s *Server) GetRecord(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, ok := s.ownedUserID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	rec, err := s.trackingService.GetRecord(ctx, uid, chi.URLParam(r, "date"))
	if err != nil {
		s.writeServiceError(w, logger, "get record", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"data": rec,
	})
}

func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, ok := s.ownedUserID(w, r)
	if !ok {
		return
	}
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		var err error
		days, err = strconv.Atoi(raw)
		if err != nil {
			logger.Error("get history error: invalid days")
			httputil.WriteErrorResponse(w, http.StatusBadRequest, "days must be an integer", nil)
			return
		}
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	history, err := s.summaryService.GetHistory(ctx, uid, days)
	if err != nil {
		s.writeServiceError(w, logger, "get history", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, HistoryResponse{History: history})
}

func (s *Server) GetSummary(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, ok := s.ownedUserID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	summary, err := s.summaryService.GetSummary(ctx, uid)
	if err != nil {
		s.writeServiceError(w, logger, "get summary", err)
		return
	}
	if s.metrics != nil && summary.Needs != nil {
		s.metrics.ObserveSummary(summary.IsBalanced, summary.Streak.CurrentStreak)
	}
	httputil.WriteJSONResponse(w, http.StatusOK, summary)
}

func (s *Server) GetStreak(w http.ResponseWriter, r *http.Request) {
	logger := GetLoggerFromCtx(r.Context())
	uid, ok := s.ownedUserID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	state, err := s.summaryService.GetStreak(ctx, uid)
	if err != nil {
		s.writeServiceError(w, logger, "get streak", err)
		return
	}
	httputil.WriteJSONResponse(w, http.StatusOK, state)
}

// ownedUserID parses the {userId} path segment and checks it against the
// authenticated user. It answers the request itself when it returns false.
func (s *Server) ownedUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	logger := GetLoggerFromCtx(r.Context())
	authUID, err := GetUIDFromContext(r)
	if err != nil {
		logger.Error("unauthorized request")
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, "no authorization", nil)
		return uuid.UUID{}, false
	}
	pathUID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		logger.Error("invalid user id in path")
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid user id", nil)
		return uuid.UUID{}, false
	}
	if pathUID != authUID {
		logger.Error("access to another user's data", slog.String("target", pathUID.String()))
		httputil.WriteErrorResponse(w, http.StatusForbidden, errorvalues.ErrForbidden.Error(), nil)
		return uuid.UUID{}, false
	}
	return pathUID, true
}

func (s *Server) writeServiceError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, errorvalues.ErrValidation),
		errors.Is(err, errorvalues.ErrInvalidProfile),
		errors.Is(err, errorvalues.ErrInvalidMeal),
		errors.Is(err, errorvalues.ErrInvalidWaterAmount),
		errors.Is(err, errorvalues.ErrInvalidDate):
		logger.Error(op+" error: invalid input", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusBadRequest, "invalid input", err)
	case errors.Is(err, errorvalues.ErrUserNotFound):
		logger.Error(op + " error: user not found")
		httputil.WriteErrorResponse(w, http.StatusNotFound, "user not found", nil)
	case errors.Is(err, errorvalues.ErrForbidden):
		logger.Error(op + " error: forbidden")
		httputil.WriteErrorResponse(w, http.StatusForbidden, errorvalues.ErrForbidden.Error(), nil)
	default:
		logger.Error(op+" error: service error", slog.String("error", err.Error()))
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, "internal error", nil)
	}
}
