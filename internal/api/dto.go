package api

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// groupWindowRequest is the body of POST /queries/{id}/group: a
// diagnostic request to list the records in one group's first..last
// window (spec.md §6's group lookup).
type groupWindowRequest struct {
	GroupID uint64 `json:"group_id" validate:"required"`
	Limit   int    `json:"limit" validate:"omitempty,min=1,max=1000"`
}

func (r *groupWindowRequest) normalize() {
	if r.Limit == 0 {
		r.Limit = 100
	}
}
