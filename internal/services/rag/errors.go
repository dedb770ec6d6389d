package rag

import "errors"

var (
	// ErrEmptyQuery is returned when a search or answer request carries a
	// blank query
	ErrEmptyQuery = errors.New("query is required")

	// ErrMaterialForbidden is returned when a scoped material belongs to a
	// different owner than the caller
	ErrMaterialForbidden = errors.New("material belongs to another owner")

	// ErrOwnerRequired is returned when a request carries no owner ID
	ErrOwnerRequired = errors.New("owner ID is required")
)
