package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stay_service/domain"
	errs "stay_service/errors"
	application "stay_service/service"
)

type ReservationHandler struct {
	logger  *logrus.Logger
	service *application.ReservationService
	tracer  trace.Tracer
}

func NewReservationHandler(logger *logrus.Logger, service *application.ReservationService, tracer trace.Tracer) *ReservationHandler {
	return &ReservationHandler{
		logger:  logger,
		service: service,
		tracer:  tracer,
	}
}

func (handler *ReservationHandler) Init(router *mux.Router) {
	router.HandleFunc("/reservations", handler.CreateReservation).Methods("POST")
	router.HandleFunc("/reservations", handler.GetAll).Methods("GET")
	router.HandleFunc("/reservations/{id}", handler.GetByID).Methods("GET")
	router.HandleFunc("/reservations/{id}", handler.UpdateReservation).Methods("PATCH")
	router.HandleFunc("/reservations/{id}/cancel", handler.CancelReservation).Methods("POST")
	router.HandleFunc("/reservations/{id}", handler.DeleteReservation).Methods("DELETE")
	router.HandleFunc("/gallery-code", handler.SetGalleryCode).Methods("PUT")
}

func (handler *ReservationHandler) CreateReservation(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ReservationHandler.CreateReservation")
	defer span.End()

	var request domain.CreateReservationRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		errorResponse(writer, "Invalid request format", http.StatusBadRequest)
		return
	}

	created, err := handler.service.CreateReservation(ctx, &request)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		var validationErr *errs.ValidationError
		if errors.As(err, &validationErr) {
			errorResponse(writer, validationErr.Message, http.StatusBadRequest)
			return
		}
		if errors.Is(err, errs.ErrCodeGenerationExhausted) {
			handler.logger.Error("Access code generation exhausted")
			errorResponse(writer, errs.ErrCodeGenerationExhausted.Error(), http.StatusInternalServerError)
			return
		}
		handler.logger.Error("Create reservation failed: ", err)
		errorResponse(writer, "Internal server error", http.StatusInternalServerError)
		return
	}

	handler.logger.WithField("reservation", created.ID.Hex()).Info("Reservation created")
	writer.WriteHeader(http.StatusCreated)
	jsonResponse(created, writer)
}

// GetAll lists reservations for the admin dashboard, advancing lifecycle
// statuses first. A failed advance is logged and the list served with
// slightly-stale statuses rather than failing the whole request.
func (handler *ReservationHandler) GetAll(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ReservationHandler.GetAll")
	defer span.End()

	if err := handler.service.AdvanceStatuses(ctx); err != nil {
		handler.logger.Warn("Status advance failed, serving stale statuses: ", err)
	}

	reservations, err := handler.service.GetAll(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handler.logger.Error("List reservations failed: ", err)
		errorResponse(writer, "Internal server error", http.StatusInternalServerError)
		return
	}

	jsonResponse(reservations, writer)
}

func (handler *ReservationHandler) GetByID(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ReservationHandler.GetByID")
	defer span.End()

	id, ok := reservationID(writer, req)
	if !ok {
		return
	}

	if err := handler.service.AdvanceStatuses(ctx); err != nil {
		handler.logger.Warn("Status advance failed, serving stale statuses: ", err)
	}

	reservation, err := handler.service.GetByID(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handler.notFoundOrInternal(writer, err)
		return
	}

	// Admin detail view always carries the raw keybox code; the time gate
	// applies only to the guest-facing read path.
	jsonResponse(reservation, writer)
}

func (handler *ReservationHandler) UpdateReservation(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ReservationHandler.UpdateReservation")
	defer span.End()

	id, ok := reservationID(writer, req)
	if !ok {
		return
	}

	var update domain.ReservationUpdate
	if err := json.NewDecoder(req.Body).Decode(&update); err != nil {
		errorResponse(writer, "Invalid request format", http.StatusBadRequest)
		return
	}

	updated, err := handler.service.UpdateReservation(ctx, id, &update)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		var validationErr *errs.ValidationError
		if errors.As(err, &validationErr) {
			errorResponse(writer, validationErr.Message, http.StatusBadRequest)
			return
		}
		handler.notFoundOrInternal(writer, err)
		return
	}

	jsonResponse(updated, writer)
}

func (handler *ReservationHandler) CancelReservation(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ReservationHandler.CancelReservation")
	defer span.End()

	id, ok := reservationID(writer, req)
	if !ok {
		return
	}

	err := handler.service.CancelReservation(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, errs.ErrCompletedStay) {
			errorResponse(writer, errs.ErrCompletedStay.Error(), http.StatusBadRequest)
			return
		}
		handler.notFoundOrInternal(writer, err)
		return
	}

	writer.WriteHeader(http.StatusOK)
}

func (handler *ReservationHandler) DeleteReservation(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ReservationHandler.DeleteReservation")
	defer span.End()

	id, ok := reservationID(writer, req)
	if !ok {
		return
	}

	err := handler.service.DeleteReservation(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handler.notFoundOrInternal(writer, err)
		return
	}

	writer.WriteHeader(http.StatusOK)
}

type galleryCodeRequest struct {
	Code string `json:"code"`
}

func (handler *ReservationHandler) SetGalleryCode(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "ReservationHandler.SetGalleryCode")
	defer span.End()

	var request galleryCodeRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		errorResponse(writer, "Invalid request format", http.StatusBadRequest)
		return
	}

	err := handler.service.SetGalleryCode(ctx, request.Code)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		var validationErr *errs.ValidationError
		if errors.As(err, &validationErr) {
			errorResponse(writer, validationErr.Message, http.StatusBadRequest)
			return
		}
		handler.logger.Error("Gallery code update failed: ", err)
		errorResponse(writer, "Internal server error", http.StatusInternalServerError)
		return
	}

	writer.WriteHeader(http.StatusOK)
}

func (handler *ReservationHandler) notFoundOrInternal(writer http.ResponseWriter, err error) {
	if errors.Is(err, errs.ErrReservationNotFound) {
		errorResponse(writer, errs.ErrReservationNotFound.Error(), http.StatusNotFound)
		return
	}
	handler.logger.Error("Reservation operation failed: ", err)
	errorResponse(writer, "Internal server error", http.StatusInternalServerError)
}

func reservationID(writer http.ResponseWriter, req *http.Request) (primitive.ObjectID, bool) {
	vars := mux.Vars(req)
	id, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		errorResponse(writer, "Invalid reservation id", http.StatusBadRequest)
		return primitive.NilObjectID, false
	}
	return id, true
}

func jsonResponse(payload interface{}, writer http.ResponseWriter) {
	if err := json.NewEncoder(writer).Encode(payload); err != nil {
		log.Println("Error encoding response:", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func errorResponse(writer http.ResponseWriter, message string, status int) {
	writer.WriteHeader(status)
	if err := json.NewEncoder(writer).Encode(errorBody{Error: message}); err != nil {
		log.Println("Error encoding response:", err)
	}
}
