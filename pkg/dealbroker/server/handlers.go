package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/cardealbroker/dealbroker/pkg/dealbroker/apperr"
	"github.com/cardealbroker/dealbroker/pkg/dealbroker/dal"
	"github.com/cardealbroker/dealbroker/pkg/dealbroker/images"
)

const maxJSONBody = 1 << 20

// GetListings defines a GET handler returning every listing of a collection
func (h *httpServer) GetListings(w http.ResponseWriter, r *http.Request) {
	kind, err := h.validateKind(w, mux.Vars(r))
	if err != nil {
		return
	}
	ctx := r.Context()

	if body, ok, err := h.cache.Listings(ctx, kind); err != nil {
		h.log.Warn("listing cache read failed", "kind", kind, "error", err)
	} else if ok {
		h.writeRaw(w, http.StatusOK, body)
		return
	}

	gen, genErr := h.cache.Generation(ctx, kind)
	if genErr != nil {
		h.log.Warn("listing cache generation read failed", "kind", kind, "error", genErr)
	}
	listings, err := h.store.List(ctx, kind)
	if err != nil {
		h.writeError(w, err)
		return
	}
	body, err := json.Marshal(listings)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if genErr == nil {
		if err := h.cache.StoreListings(ctx, kind, gen, body); err != nil {
			h.log.Warn("listing cache write failed", "kind", kind, "error", err)
		}
	}
	h.writeRaw(w, http.StatusOK, body)
}

// GetListing returns one listing by id
func (h *httpServer) GetListing(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind, err := h.validateKind(w, vars)
	if err != nil {
		return
	}
	id, err := h.validateID(w, vars)
	if err != nil {
		return
	}
	l, err := h.store.Get(r.Context(), kind, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, l)
}

// CreateListing stores a new listing; the backend assigns the id
func (h *httpServer) CreateListing(w http.ResponseWriter, r *http.Request) {
	kind, err := h.validateKind(w, mux.Vars(r))
	if err != nil {
		return
	}
	l, err := h.decodeListing(w, r)
	if err != nil {
		return
	}
	l.ID = 0

	created, err := h.store.Create(r.Context(), kind, l)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.invalidate(r, kind)
	h.log.Info("listing created", "kind", kind, "id", created.ID, "title", created.Title())
	h.writeJSON(w, http.StatusCreated, created)
}

// UpdateListing replaces a listing in full
func (h *httpServer) UpdateListing(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind, err := h.validateKind(w, vars)
	if err != nil {
		return
	}
	id, err := h.validateID(w, vars)
	if err != nil {
		return
	}
	l, err := h.decodeListing(w, r)
	if err != nil {
		return
	}
	l.ID = id

	updated, err := h.store.Update(r.Context(), kind, l)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.invalidate(r, kind)
	h.log.Info("listing updated", "kind", kind, "id", id)
	h.writeJSON(w, http.StatusOK, updated)
}

// DeleteListing removes a listing; its image is left in storage
func (h *httpServer) DeleteListing(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind, err := h.validateKind(w, vars)
	if err != nil {
		return
	}
	id, err := h.validateID(w, vars)
	if err != nil {
		return
	}
	if err := h.store.Delete(r.Context(), kind, id); err != nil {
		h.writeError(w, err)
		return
	}
	h.invalidate(r, kind)
	h.log.Info("listing deleted", "kind", kind, "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage accepts a multipart "file" field and stores it
func (h *httpServer) UploadImage(w http.ResponseWriter, r *http.Request) {
	kind, err := dal.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		h.writeError(w, apperr.Validation(err.Error()))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, images.MaxSize+(1<<20))
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, apperr.Validation(fmt.Sprintf("file is required: %v", err)))
		return
	}
	defer file.Close()

	contentType, err := images.Sniff(file)
	if err != nil {
		h.writeError(w, apperr.Internal("read upload", err))
		return
	}
	if !images.Allowed(contentType) {
		h.writeError(w, apperr.Validation(fmt.Sprintf("unsupported image type %q", contentType)))
		return
	}
	if header.Size > images.MaxSize {
		h.writeError(w, apperr.Validation("image is larger than 10 MiB"))
		return
	}

	url, err := h.images.Upload(r.Context(), kind, contentType, file)
	if err != nil {
		h.writeError(w, apperr.Internal("image upload failed", err))
		return
	}
	h.log.Info("image uploaded", "kind", kind, "url", url, "bytes", header.Size)
	h.writeJSON(w, http.StatusOK, dal.ImageUpload{ImageURL: url})
}

// SubmitInquiry records a customer's interest in one listing
func (h *httpServer) SubmitInquiry(w http.ResponseWriter, r *http.Request) {
	var inq dal.Inquiry
	if err := h.decode(w, r, &inq); err != nil {
		return
	}
	if err := h.validate.Validate(inq); err != nil {
		h.writeError(w, err)
		return
	}
	id, err := h.store.SaveInquiry(r.Context(), inq)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.log.Info("vehicle inquiry received",
		"inquiry_id", id,
		"vehicle_type", inq.VehicleType,
		"listing_id", inq.Vehicle.ID,
		"vehicle", fmt.Sprintf("%d %s %s", inq.Vehicle.Year, inq.Vehicle.Make, inq.Vehicle.Model),
		"email", inq.Email,
	)
	h.writeJSON(w, http.StatusOK, dal.Acknowledgement{Message: "Inquiry received. Our team will reach out shortly."})
}

// SubmitForm records a landing page lead
func (h *httpServer) SubmitForm(w http.ResponseWriter, r *http.Request) {
	var form dal.LeadForm
	if err := h.decode(w, r, &form); err != nil {
		return
	}
	if err := h.validate.Validate(form); err != nil {
		h.writeError(w, err)
		return
	}
	if missing := form.MissingFields(); len(missing) > 0 {
		details := make(map[string]string, len(missing))
		for _, name := range missing {
			details[name] = "is required"
		}
		h.writeError(w, apperr.ValidationWithDetails("validation failed", details))
		return
	}
	id, err := h.store.SaveLead(r.Context(), form)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.log.Info("lead form received", "lead_id", id, "form_type", form.FormType, "email", form.Email)
	h.writeJSON(w, http.StatusOK, dal.Acknowledgement{Message: "Form submitted successfully."})
}

// AdminLogin checks the admin password. No session is issued.
func (h *httpServer) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req dal.LoginRequest
	if err := h.decode(w, r, &req); err != nil {
		return
	}
	ok := false
	if len(h.adminHash) == 0 {
		h.log.Warn("admin login attempted but no admin password is configured")
	} else {
		ok = bcrypt.CompareHashAndPassword(h.adminHash, []byte(req.Password)) == nil
	}
	if !ok {
		h.log.Warn("admin login rejected", "remote", clientIP(r))
	}
	h.writeJSON(w, http.StatusOK, dal.LoginResponse{Authenticated: ok})
}

// Health reports whether the database answers.
func (h *httpServer) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.writeError(w, apperr.Internal("database unavailable", err))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *httpServer) notFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, apperr.NotFound("%s not found", r.URL.Path))
}

func (h *httpServer) invalidate(r *http.Request, kind dal.Kind) {
	if err := h.cache.Invalidate(r.Context(), kind); err != nil {
		h.log.Warn("listing cache invalidation failed", "kind", kind, "error", err)
	}
}

func (h *httpServer) decodeListing(w http.ResponseWriter, r *http.Request) (dal.Listing, error) {
	var l dal.Listing
	if err := h.decode(w, r, &l); err != nil {
		return dal.Listing{}, err
	}
	if err := h.validate.Validate(l); err != nil {
		h.writeError(w, err)
		return dal.Listing{}, err
	}
	return l, nil
}

func (h *httpServer) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.log.Info("request body rejected", "path", r.URL.Path, "error", err)
		h.writeError(w, apperr.Validation("invalid JSON body"))
		return err
	}
	return nil
}

func (h *httpServer) validateKind(w http.ResponseWriter, vars map[string]string) (dal.Kind, error) {
	kind, err := dal.ParseKind(vars["collection"])
	if err != nil {
		h.writeError(w, apperr.Validation(err.Error()))
		return "", err
	}
	return kind, nil
}

func (h *httpServer) validateID(w http.ResponseWriter, vars map[string]string) (int64, error) {
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		h.writeError(w, apperr.Validation(fmt.Sprintf("id must be a number: %q", vars["id"])))
		return 0, err
	}
	if id <= 0 {
		h.writeError(w, apperr.Validation(fmt.Sprintf("id must be a positive number: %d", id)))
		return 0, errors.New("id must be a positive number")
	}
	return id, nil
}
