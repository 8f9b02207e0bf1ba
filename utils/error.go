package utils

import "errors"

// ErrorRecordNotFound is the lookup sentinel the stores return for a
// missing record, so callers never depend on the ORM's error types.
var ErrorRecordNotFound = errors.New("record not found")

// ErrorPanic aborts startup-time work (migrations, seeding) that has no
// caller to hand the error to.
func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
