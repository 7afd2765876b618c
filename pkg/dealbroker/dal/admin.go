package dal

// LoginRequest is the body of POST /admin/login.
type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// LoginResponse only says whether the password matched; no token is issued.
type LoginResponse struct {
	Authenticated bool `json:"authenticated"`
}

// ImageUpload is the reply of the image upload endpoints.
type ImageUpload struct {
	ImageURL string `json:"image_url"`
}
