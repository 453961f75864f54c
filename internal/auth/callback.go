package auth

import (
	"context"
	"io"
	"log"
	"net/url"
	"strings"
)

const (
	DefaultNextPath = "/dashboard"
	ErrorPath       = "/auth/auth-code-error"
	MissingCode     = "missing_code"
)

type CodeExchanger interface {
	ExchangeCode(ctx context.Context, code string) (*Session, error)
}

type CallbackOptions struct {
	Origin        string
	ForwardedHost string
	Development   bool
	Logger        *log.Logger
}

// ResolveCallback handles the redirect target of a sign-in link and
// returns where the user should land.
func ResolveCallback(ctx context.Context, query url.Values, ex CodeExchanger, opts CallbackOptions) string {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	origin := strings.TrimRight(opts.Origin, "/")
	next := query.Get("next")
	if next == "" {
		next = DefaultNextPath
	}

	if code := query.Get("code"); code != "" {
		if _, err := ex.ExchangeCode(ctx, code); err == nil {
			switch {
			case opts.Development:
				return origin + next
			case opts.ForwardedHost != "":
				return "https://" + opts.ForwardedHost + next
			default:
				return origin + next
			}
		} else {
			logger.Printf("auth callback: exchange failed: %v", err)
		}
	} else {
		logger.Printf("auth callback: missing code param")
	}

	if errCode := query.Get("error"); errCode != "" {
		params := url.Values{}
		params.Set("error", errCode)
		params.Set("message", query.Get("error_description"))
		return origin + ErrorPath + "?" + params.Encode()
	}
	return origin + ErrorPath + "?error=" + MissingCode
}

// CallbackError is what the auth error screen shows.
type CallbackError struct {
	Code    string
	Message string
}

func (e CallbackError) Empty() bool {
	return e.Code == "" && e.Message == ""
}

// ParseCallbackError reads error and message from an error-page URL.
func ParseCallbackError(raw string) (CallbackError, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return CallbackError{}, err
	}
	q := u.Query()
	return CallbackError{Code: q.Get("error"), Message: q.Get("message")}, nil
}

// IsErrorRedirect reports whether target points at the auth error page.
func IsErrorRedirect(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return u.Path == ErrorPath
}
