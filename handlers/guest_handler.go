package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stay_service/authorization"
	errs "stay_service/errors"
	application "stay_service/service"
)

const (
	GuestSessionCookieName  = "guest_session"
	GalleryAccessCookieName = "gallery_access"
)

type guestSessionKey struct{}

type GuestHandler struct {
	logger        *logrus.Logger
	service       *application.GuestService
	sessions      *authorization.GuestSessionManager
	tracer        trace.Tracer
	secureCookies bool
}

func NewGuestHandler(logger *logrus.Logger, service *application.GuestService, sessions *authorization.GuestSessionManager, tracer trace.Tracer, secureCookies bool) *GuestHandler {
	return &GuestHandler{
		logger:        logger,
		service:       service,
		sessions:      sessions,
		tracer:        tracer,
		secureCookies: secureCookies,
	}
}

func (handler *GuestHandler) Init(router *mux.Router) {
	router.HandleFunc("/guest/redeem", handler.RedeemCode).Methods("POST")
	router.HandleFunc("/guest/logout", handler.Logout).Methods("POST")
	router.HandleFunc("/gallery/unlock", handler.UnlockGallery).Methods("POST")
	router.HandleFunc("/gallery/access", handler.GalleryAccess).Methods("GET")

	stayRouter := router.Methods(http.MethodGet).Subrouter()
	stayRouter.HandleFunc("/guest/stay", handler.GetStay)
	stayRouter.Use(handler.MiddlewareGuestSession)
}

type redeemRequest struct {
	Code *string `json:"code"`
}

func (handler *GuestHandler) RedeemCode(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "GuestHandler.RedeemCode")
	defer span.End()

	var request redeemRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil || request.Code == nil {
		errorResponse(writer, "A code field is required", http.StatusBadRequest)
		return
	}

	summary, token, expiresAt, err := handler.service.RedeemCode(ctx, *request.Code)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		switch err {
		case errs.ErrInvalidAccessCode:
			handler.logger.WithField("remote", req.RemoteAddr).Warn("Redeem attempt with unknown access code")
			errorResponse(writer, errs.ErrInvalidAccessCode.Error(), http.StatusUnauthorized)
		case errs.ErrStayCancelled:
			errorResponse(writer, errs.ErrStayCancelled.Error(), http.StatusUnauthorized)
		default:
			handler.logger.Error("Redeem failed: ", err)
			errorResponse(writer, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	http.SetCookie(writer, handler.sessionCookie(token, expiresAt))
	jsonResponse(summary, writer)
}

func (handler *GuestHandler) GetStay(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "GuestHandler.GetStay")
	defer span.End()

	session := req.Context().Value(guestSessionKey{}).(*authorization.GuestSession)

	view, err := handler.service.GetStay(ctx, session.ReservationID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if err == errs.ErrInvalidSession {
			errorResponse(writer, errs.ErrInvalidSession.Error(), http.StatusUnauthorized)
			return
		}
		handler.logger.Error("Stay read failed: ", err)
		errorResponse(writer, "Internal server error", http.StatusInternalServerError)
		return
	}

	jsonResponse(view, writer)
}

func (handler *GuestHandler) Logout(writer http.ResponseWriter, req *http.Request) {
	http.SetCookie(writer, &http.Cookie{
		Name:     GuestSessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   handler.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writer.WriteHeader(http.StatusOK)
}

func (handler *GuestHandler) UnlockGallery(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "GuestHandler.UnlockGallery")
	defer span.End()

	var request redeemRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil || request.Code == nil {
		errorResponse(writer, "A code field is required", http.StatusBadRequest)
		return
	}

	marker, expiresAt, err := handler.service.UnlockGallery(ctx, *request.Code)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		switch err {
		case errs.ErrInvalidGalleryCode, errs.ErrGalleryCodeNotSet:
			errorResponse(writer, errs.ErrInvalidGalleryCode.Error(), http.StatusUnauthorized)
		default:
			handler.logger.Error("Gallery unlock failed: ", err)
			errorResponse(writer, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     GalleryAccessCookieName,
		Value:    marker,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   handler.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writer.WriteHeader(http.StatusOK)
}

// GalleryAccess reports whether the caller may see the shared photo
// gallery: either the gallery marker cookie or a valid guest session will
// do. The gallery content itself lives with the rest of the CRUD surface.
func (handler *GuestHandler) GalleryAccess(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "GuestHandler.GalleryAccess")
	defer span.End()

	if handler.hasGuestSession(req) {
		jsonResponse(map[string]bool{"granted": true}, writer)
		return
	}

	marker := ""
	if cookie, err := req.Cookie(GalleryAccessCookieName); err == nil {
		marker = cookie.Value
	}

	granted, err := handler.service.HasGalleryAccess(ctx, marker)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handler.logger.Error("Gallery access check failed: ", err)
		errorResponse(writer, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !granted {
		errorResponse(writer, "Unauthorized", http.StatusUnauthorized)
		return
	}

	jsonResponse(map[string]bool{"granted": true}, writer)
}

// MiddlewareGuestSession is the authentication check for the guest portal:
// it recovers the reservation binding from the session cookie on every
// request, with no server-side state.
func (handler *GuestHandler) MiddlewareGuestSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
		cookie, err := req.Cookie(GuestSessionCookieName)
		if err != nil {
			errorResponse(writer, errs.ErrInvalidSession.Error(), http.StatusUnauthorized)
			return
		}

		session, err := handler.sessions.Verify(cookie.Value)
		if err != nil {
			errorResponse(writer, errs.ErrInvalidSession.Error(), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(req.Context(), guestSessionKey{}, session)
		next.ServeHTTP(writer, req.WithContext(ctx))
	})
}

func (handler *GuestHandler) hasGuestSession(req *http.Request) bool {
	cookie, err := req.Cookie(GuestSessionCookieName)
	if err != nil {
		return false
	}
	_, err = handler.sessions.Verify(cookie.Value)
	return err == nil
}

func (handler *GuestHandler) sessionCookie(token string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     GuestSessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   handler.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}
