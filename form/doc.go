// Package form manages a schema-driven form lifecycle: field values, per-field
// errors, a global message and a single in-flight submission whose outcome is
// mapped onto those fields. Persistence is delegated to a caller supplied
// SubmitFunc; the manager only applies the surface (notifications, errors,
// redirect) of its result.
package form
