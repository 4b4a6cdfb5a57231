package errors

import "fmt"

// NewConfigNotFound reports a manifest or lockfile that does not exist on disk.
func NewConfigNotFound(path string) *Error {
	return newError(CategoryConfig, CodeConfigNotFound,
		fmt.Sprintf("config not found: %s", path), nil).
		WithDetail("path", path).
		WithHint("Check the path or run the init command to scaffold one.")
}

// NewConfigInvalid reports a TOML syntax or structural error, optionally
// located at a line/column when the parser supplies one.
func NewConfigInvalid(path string, line, column int, cause error) *Error {
	e := newError(CategoryConfig, CodeConfigInvalid,
		fmt.Sprintf("invalid config: %s", path), cause).
		WithDetail("path", path)
	if line > 0 {
		e.WithDetail("line", line).WithDetail("column", column)
	}
	return e
}

// NewConfigMissingField reports a required manifest field that was absent.
func NewConfigMissingField(path, field string) *Error {
	return newError(CategoryConfig, CodeConfigMissingField,
		fmt.Sprintf("missing required field %q in %s", field, path), nil).
		WithDetail("path", path).
		WithDetail("field", field).
		WithHint(fmt.Sprintf("Add `%s = ...` to the manifest.", field))
}
