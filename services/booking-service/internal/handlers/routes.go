package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Savotageofficial/capsule/libs/auth"
	"github.com/Savotageofficial/capsule/libs/httpx"
	"github.com/Savotageofficial/capsule/services/booking-service/internal/booking"
)

// Register mounts the booking API on mux. Every route needs a bearer token;
// availability writes are limited to doctors.
func Register(mux *http.ServeMux, svc *booking.Service, verifier *auth.Verifier, logger *slog.Logger) {
	av := NewAvailabilityHandler(svc, logger)
	ap := NewAppointmentHandler(svc, logger)

	authed := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h, auth.RequireAuth(verifier))
	}
	doctorOnly := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h, auth.RequireAuth(verifier), auth.RequireRole(auth.RoleDoctor))
	}

	mux.Handle("GET /api/v1/doctors/{doctorID}/availability", authed(av.Get))
	mux.Handle("PUT /api/v1/doctors/{doctorID}/availability", doctorOnly(av.Put))
	mux.Handle("POST /api/v1/doctors/{doctorID}/availability/{day}/slots", doctorOnly(av.AddSlot))
	mux.Handle("PATCH /api/v1/doctors/{doctorID}/availability/{day}/slots/{index}", doctorOnly(av.UpdateSlot))
	mux.Handle("DELETE /api/v1/doctors/{doctorID}/availability/{day}/slots/{index}", doctorOnly(av.DeleteSlot))
	mux.Handle("GET /api/v1/doctors/{doctorID}/slots", authed(av.Slots))

	mux.Handle("POST /api/v1/appointments", authed(ap.Create))
	mux.Handle("GET /api/v1/appointments/{id}", authed(ap.Get))
	mux.Handle("POST /api/v1/appointments/{id}/cancel", authed(ap.Cancel))
	mux.Handle("POST /api/v1/appointments/{id}/complete", authed(ap.Complete))
	mux.Handle("GET /api/v1/doctors/{doctorID}/appointments", authed(ap.ListForDoctor))
	mux.Handle("GET /api/v1/patients/{patientID}/appointments", authed(ap.ListForPatient))
}
