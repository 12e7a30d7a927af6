package dto

// AssignDOIRequest binds an identifier manually.
type AssignDOIRequest struct {
	DOI string `json:"doi" validate:"required"`
}
