// Package sanitizer provides input normalization for guest and task data.
//
// All normalization functions are idempotent - applying them multiple times produces
// the same result. Functions handle invalid input gracefully, typically by returning
// empty strings or empty slices rather than errors, and leave rejection to the
// validators that run afterwards.
package sanitizer
