// Package validation checks request inputs and settings before they are sent.
//
// Struct tags are handled by go-playground/validator, with field names taken
// from json (or mapstructure) tags:
//
//	type ExecRequest struct {
//	    Cmd     string `json:"cmd" validate:"required"`
//	    Timeout int    `json:"timeout" validate:"gte=0"`
//	}
//	err := validation.Validate(req)
//
// The "flyname" tag rejects values containing '/', ':' or '\'.
//
// Checks that tags cannot express use the Validator builder:
//
//	err := validation.New().Required("app", app).Validate()
package validation
