package http

import (
	"time"

	"github.com/khoahotran/resume-builder/internal/domain/entry"
	"github.com/khoahotran/resume-builder/internal/domain/export"
	"github.com/khoahotran/resume-builder/internal/domain/media"
	"github.com/khoahotran/resume-builder/internal/domain/profile"
	"github.com/khoahotran/resume-builder/internal/domain/user"
)

// Auth DTOs

type sendOTPRequest struct {
	Email string `json:"email" binding:"required"`
}

type verifyOTPRequest struct {
	Email   string `json:"email" binding:"required"`
	Code    string `json:"otp" binding:"required"`
	Purpose string `json:"purpose" binding:"omitempty,oneof=register reset"`
}

type setPasswordRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" binding:"required"`
	Code        string `json:"otp" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

type UserDTO struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func ToUserDTO(u *user.User) UserDTO {
	dto := UserDTO{
		ID:        u.ID.String(),
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
	if u.Name != nil {
		dto.Name = *u.Name
	}
	if u.AvatarURL != nil {
		dto.AvatarURL = *u.AvatarURL
	}
	return dto
}

func ToUserDTOs(users []*user.User) []UserDTO {
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = ToUserDTO(u)
	}
	return dtos
}

// Profile DTOs

type ProfileDTO struct {
	User        UserDTO        `json:"user"`
	Phone       string         `json:"phone"`
	Location    string         `json:"location"`
	Bio         string         `json:"bio"`
	Preferences map[string]any `json:"preferences"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type UpdateProfileRequest struct {
	Name        *string        `json:"name"`
	Phone       string         `json:"phone"`
	Location    string         `json:"location"`
	Bio         string         `json:"bio"`
	Preferences map[string]any `json:"preferences"`
}

func ToProfileDTO(u *user.User, p *profile.Profile) ProfileDTO {
	dto := ProfileDTO{User: ToUserDTO(u)}
	if p != nil {
		dto.Phone = p.Phone
		dto.Location = p.Location
		dto.Bio = p.Bio
		dto.Preferences = p.Preferences
		dto.UpdatedAt = p.UpdatedAt
	}
	if dto.Preferences == nil {
		dto.Preferences = map[string]any{}
	}
	return dto
}

// Media DTOs

type MediaDTO struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	URL          string    `json:"url"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

func ToMediaDTOs(medias []*media.Media) []MediaDTO {
	dtos := make([]MediaDTO, len(medias))
	for i, m := range medias {
		dtos[i] = MediaDTO{
			ID:           m.ID.String(),
			Kind:         string(m.Kind),
			URL:          m.URL,
			ThumbnailURL: m.ThumbnailURL,
			Status:       string(m.Status),
			CreatedAt:    m.CreatedAt,
		}
	}
	return dtos
}

// Section entry DTOs

type EntryDTO struct {
	ID        string         `json:"id"`
	Section   string         `json:"section"`
	Position  int            `json:"position"`
	Data      map[string]any `json:"data"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func ToEntryDTO(e *entry.Entry) EntryDTO {
	return EntryDTO{
		ID:        e.ID.String(),
		Section:   e.SectionID,
		Position:  e.Position,
		Data:      e.Data,
		UpdatedAt: e.UpdatedAt,
	}
}

func ToEntryDTOs(entries []*entry.Entry) []EntryDTO {
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = ToEntryDTO(e)
	}
	return dtos
}

// Template DTOs

// TemplateRequest is shared by create and update. Pointer fields left out of
// an update keep their stored value.
type TemplateRequest struct {
	Name          *string        `json:"name"`
	Description   *string        `json:"description"`
	Category      *string        `json:"category"`
	Customization map[string]any `json:"customization"`
	IsActive      *bool          `json:"is_active"`
	IsPremium     *bool          `json:"is_premium"`
}

type addFavoriteRequest struct {
	UserID     string `json:"user_id"`
	TemplateID string `json:"template_id" binding:"required,uuid"`
}

// Export DTOs

type requestExportRequest struct {
	Format string `json:"format" binding:"required,oneof=pdf docx"`
}

type ExportDTO struct {
	ID        string    `json:"id"`
	Format    string    `json:"format"`
	Status    string    `json:"status"`
	FileName  string    `json:"file_name,omitempty"`
	URL       *string   `json:"url"`
	Pages     int       `json:"pages,omitempty"`
	SizeBytes int64     `json:"size_bytes,omitempty"`
	Error     *string   `json:"error"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToExportDTO(j *export.Job) ExportDTO {
	return ExportDTO{
		ID:        j.ID.String(),
		Format:    string(j.Format),
		Status:    string(j.Status),
		FileName:  j.FileName,
		URL:       j.URL,
		Pages:     j.Pages,
		SizeBytes: j.SizeBytes,
		Error:     j.Error,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// Admin DTOs

type listUsersQuery struct {
	Search string `form:"search"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}
