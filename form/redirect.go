package form

// DefaultRedirect is the target used when no policy is configured
const DefaultRedirect = "/"

// Redirect is the post-success navigation policy
type Redirect struct {
	target   string
	disabled bool
}

// RedirectTo navigates to path after success; an empty path means DefaultRedirect
func RedirectTo(path string) Redirect {
	return Redirect{target: path}
}

// NoRedirect disables navigation
func NoRedirect() Redirect {
	return Redirect{disabled: true}
}

// Target returns the path and whether navigation is enabled
func (r Redirect) Target() (string, bool) {
	if r.disabled {
		return "", false
	}
	if r.target == "" {
		return DefaultRedirect, true
	}
	return r.target, true
}

// Navigator performs a client-side replace navigation
type Navigator interface {
	NavigateReplace(path string)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(path string)

func (f NavigatorFunc) NavigateReplace(path string) {
	f(path)
}
