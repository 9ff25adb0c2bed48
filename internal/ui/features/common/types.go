package common

import "errors"

// ErrBadRequest marks malformed client input.
var ErrBadRequest = errors.New("bad request")

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Status describes the engine for clients.
type Status struct {
	Busy    bool   `json:"busy"`
	Modules int    `json:"modules"`
	Current string `json:"current,omitempty"`
	Root    string `json:"root,omitempty"`
	History bool   `json:"history"`
}
