// Package student contains the HTTP handlers for the student resource.
//
// Handlers follow the closure/factory pattern: each exported function
// takes the service as a dependency and returns the http.HandlerFunc
// the router registers. The factory runs once at startup; the returned
// closure runs on every request.
//
// Handlers only decode, validate, delegate, and map errors to status
// codes (via the response package). All cache/store orchestration
// lives in the service.
package student

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aanand-mishra/student-records-api/internal/types"
	"github.com/aanand-mishra/student-records-api/internal/utils/response"

	"github.com/go-playground/validator/v10"
)

// Service is what the handlers need from the record service. Declared
// here so handler tests can substitute a fake.
type Service interface {
	List(ctx context.Context) ([]types.StudentRecord, error)
	GetByID(ctx context.Context, id int64) (types.StudentRecord, error)
	Create(ctx context.Context, req types.CreateStudentRequest) (types.StudentRecord, error)
	Update(ctx context.Context, id int64, req types.UpdateStudentRequest) (types.StudentRecord, error)
	Delete(ctx context.Context, id int64) error
}

// parseID extracts and parses the {id} path segment. On failure it
// writes the 400 itself and reports ok=false.
func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("invalid id: must be an integer")))
		return 0, false
	}
	return id, true
}

// decodeBody decodes the JSON request body into dest. On failure it
// writes the 400 itself and reports false. Unknown JSON fields are
// ignored, matching the API contract.
func decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	err := json.NewDecoder(r.Body).Decode(dest)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("request body is empty")))
		return false
	}
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return false
	}
	return true
}

// New handles POST /students.
//
// Success: 201 with the created record (id and timestamps included).
// Failures: 400 invalid input, 409 duplicate email.
func New(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		var req types.CreateStudentRequest
		if !decodeBody(w, r, &req) {
			return
		}

		if err := validator.New().Struct(req); err != nil {
			validateErrs := err.(validator.ValidationErrors)
			response.WriteJSON(w, http.StatusBadRequest,
				response.ValidationError(validateErrs))
			return
		}

		rec, err := svc.Create(r.Context(), req)
		if err != nil {
			slog.Error("error creating student", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		slog.Info("student created", slog.Int64("id", rec.ID))
		response.WriteJSON(w, http.StatusCreated, rec)
	}
}

// GetByID handles GET /students/{id}.
//
// Success: 200 with the record. Failures: 400 bad id, 404 unknown id.
func GetByID(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		slog.Info("getting a student", slog.Int64("id", id))

		rec, err := svc.GetByID(r.Context(), id)
		if err != nil {
			slog.Error("error getting student",
				slog.Int64("id", id),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, rec)
	}
}

// GetList handles GET /students.
//
// Success: 200 with a JSON array — [] (not null) when there are no
// students.
func GetList(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		students, err := svc.List(r.Context())
		if err != nil {
			slog.Error("error getting students", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// Update handles PUT /students/{id}.
//
// The payload may supply any subset of name/email/age; omitted fields
// are left unchanged and updated_at is refreshed by the store.
//
// Success: 200 with the updated record. Failures: 400 bad id or
// invalid input, 404 unknown id, 409 duplicate email.
func Update(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		slog.Info("updating a student", slog.Int64("id", id))

		var req types.UpdateStudentRequest
		if !decodeBody(w, r, &req) {
			return
		}

		if err := validator.New().Struct(req); err != nil {
			validateErrs := err.(validator.ValidationErrors)
			response.WriteJSON(w, http.StatusBadRequest,
				response.ValidationError(validateErrs))
			return
		}

		rec, err := svc.Update(r.Context(), id, req)
		if err != nil {
			slog.Error("error updating student",
				slog.Int64("id", id),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		slog.Info("student updated", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusOK, rec)
	}
}

// Delete handles DELETE /students/{id}. Hard delete: the id is never
// reused (BIGSERIAL sequence never rewinds).
//
// Success: 200 with a confirmation. Failures: 400 bad id, 404 unknown
// id.
func Delete(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		slog.Info("deleting a student", slog.Int64("id", id))

		if err := svc.Delete(r.Context(), id); err != nil {
			slog.Error("error deleting student",
				slog.Int64("id", id),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		slog.Info("student deleted", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
