package salonapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
)

// CreateUser registers a new customer account.
func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	var user User
	if err := c.doJSON(ctx, "create_user", http.MethodPost, "/users", nil, req, &user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// CreateSession exchanges credentials for a bearer token.
func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (*SessionResponse, error) {
	var out SessionResponse
	if err := c.doJSON(ctx, "create_session", http.MethodPost, "/sessions", nil, req, &out); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &out, nil
}

// UpdateProfile replaces the signed-in user's name/email and optionally password.
func (c *Client) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*User, error) {
	var user User
	if err := c.doJSON(ctx, "update_profile", http.MethodPut, "/profile", nil, req, &user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &user, nil
}

// AvatarUpload is one image sent as the multipart "avatar" field.
type AvatarUpload struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// UpdateAvatar uploads a new avatar for the signed-in user.
func (c *Client) UpdateAvatar(ctx context.Context, upload AvatarUpload) (*User, error) {
	if upload.Content == nil {
		return nil, fmt.Errorf("update avatar: content is required")
	}
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="avatar"; filename=%q`, upload.Filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("update avatar: build form: %w", err)
	}
	if _, err := io.Copy(part, upload.Content); err != nil {
		return nil, fmt.Errorf("update avatar: copy content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("update avatar: close form: %w", err)
	}

	var user User
	if err := c.do(ctx, "update_avatar", http.MethodPatch, "/users/avatar", nil, &buf, mw.FormDataContentType(), &user); err != nil {
		return nil, fmt.Errorf("update avatar: %w", err)
	}
	return &user, nil
}
