package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/cardealbroker/dealbroker/pkg/dealbroker/apperr"
	"github.com/cardealbroker/dealbroker/pkg/dealbroker/dal"
)

// ErrNotAuthenticated is returned for a rejected password and for admin
// calls made without a session.
var ErrNotAuthenticated = errors.New("admin: not authenticated")

// Session marks a successful admin login. It only gates the admin calls in
// this process: the server issues no token and does not check admin
// requests, so it is not an access-control boundary.
type Session struct {
	Since time.Time
}

// Image is a file chosen for upload.
type Image struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// OrphanedImageError is returned when an image was uploaded but the
// listing write that should reference it failed. Nothing removes the
// uploaded file.
type OrphanedImageError struct {
	ImageURL string
	Err      error
}

func (e *OrphanedImageError) Error() string {
	return fmt.Sprintf("listing write failed after uploading %s: %v", e.ImageURL, e.Err)
}

func (e *OrphanedImageError) Unwrap() error {
	return e.Err
}

// Admin performs listing writes and reloads the matching store afterwards.
type Admin struct {
	client *Client
	stores map[dal.Kind]*Store
	now    func() time.Time
}

// NewAdmin returns an admin bound to stores; each store is reloaded after
// a write to its kind.
func NewAdmin(c *Client, stores ...*Store) *Admin {
	a := &Admin{client: c, stores: make(map[dal.Kind]*Store), now: time.Now}
	for _, s := range stores {
		a.stores[s.Kind()] = s
	}
	return a
}

// Login posts the password to /admin/login.
func (a *Admin) Login(ctx context.Context, password string) (*Session, error) {
	if password == "" {
		return nil, apperr.Validation("password is required")
	}
	var resp dal.LoginResponse
	if err := a.client.doJSON(ctx, http.MethodPost, "/admin/login", dal.LoginRequest{Password: password}, &resp); err != nil {
		return nil, err
	}
	if !resp.Authenticated {
		return nil, ErrNotAuthenticated
	}
	return &Session{Since: a.now()}, nil
}

// UploadImage posts img as the multipart "file" field and returns its URL.
func (a *Admin) UploadImage(ctx context.Context, kind dal.Kind, img Image) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, img.Filename))
	contentType := img.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, img.Body); err != nil {
		return "", fmt.Errorf("read image %s: %w", img.Filename, err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	var up dal.ImageUpload
	if err := a.client.do(ctx, http.MethodPost, kind.UploadPath(), mw.FormDataContentType(), &buf, &up); err != nil {
		return "", err
	}
	return up.ImageURL, nil
}

// CreateListing uploads img, creates the listing with the returned URL and
// reloads the store. An image is required unless l already has a URL.
func (a *Admin) CreateListing(ctx context.Context, sess *Session, kind dal.Kind, l dal.Listing, img *Image) (dal.Listing, error) {
	if err := a.check(sess, kind); err != nil {
		return dal.Listing{}, err
	}
	if img == nil && l.ImageURL == "" {
		return dal.Listing{}, apperr.Validation("please select an image for the " + string(kind))
	}
	l.ID = 0
	if err := a.client.validate.Validate(l); err != nil {
		return dal.Listing{}, err
	}

	uploaded, err := a.uploadIfAny(ctx, kind, &l, img)
	if err != nil {
		return dal.Listing{}, err
	}
	var created dal.Listing
	if err := a.client.doJSON(ctx, http.MethodPost, kind.CollectionPath(), l, &created); err != nil {
		return dal.Listing{}, orphaned(uploaded, err)
	}
	a.reload(ctx, kind)
	return created, nil
}

// UpdateListing replaces l in full, uploading img first when given.
func (a *Admin) UpdateListing(ctx context.Context, sess *Session, kind dal.Kind, l dal.Listing, img *Image) (dal.Listing, error) {
	if err := a.check(sess, kind); err != nil {
		return dal.Listing{}, err
	}
	if l.ID <= 0 {
		return dal.Listing{}, apperr.Validation("listing id is required")
	}
	if err := a.client.validate.Validate(l); err != nil {
		return dal.Listing{}, err
	}

	uploaded, err := a.uploadIfAny(ctx, kind, &l, img)
	if err != nil {
		return dal.Listing{}, err
	}
	var updated dal.Listing
	if err := a.client.doJSON(ctx, http.MethodPut, kind.ItemPath(l.ID), l, &updated); err != nil {
		return dal.Listing{}, orphaned(uploaded, err)
	}
	a.reload(ctx, kind)
	return updated, nil
}

// DeleteListing removes the listing with id.
func (a *Admin) DeleteListing(ctx context.Context, sess *Session, kind dal.Kind, id int64) error {
	if err := a.check(sess, kind); err != nil {
		return err
	}
	if err := a.client.doJSON(ctx, http.MethodDelete, kind.ItemPath(id), nil, nil); err != nil {
		return err
	}
	a.reload(ctx, kind)
	return nil
}

func (a *Admin) check(sess *Session, kind dal.Kind) error {
	if sess == nil {
		return ErrNotAuthenticated
	}
	if !kind.Valid() {
		return apperr.Validation("unknown listing kind " + string(kind))
	}
	return nil
}

func (a *Admin) uploadIfAny(ctx context.Context, kind dal.Kind, l *dal.Listing, img *Image) (string, error) {
	if img == nil {
		return "", nil
	}
	url, err := a.UploadImage(ctx, kind, *img)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	l.ImageURL = url
	return url, nil
}

// reload refreshes the store of kind. A failed reload is left on the store
// (Store.Err) rather than failing the write that already succeeded.
func (a *Admin) reload(ctx context.Context, kind dal.Kind) {
	s, ok := a.stores[kind]
	if !ok {
		return
	}
	if _, err := s.LoadListings(ctx); err != nil {
		a.client.log.Warn("reload after admin write failed", "kind", kind, "error", err)
	}
}

func orphaned(imageURL string, err error) error {
	if imageURL == "" {
		return err
	}
	return &OrphanedImageError{ImageURL: imageURL, Err: err}
}
