package zap

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrPayloadNotFound means no script element carried the state marker.
	ErrPayloadNotFound = errors.New("embedded listing payload not found")
	// ErrPayloadMalformed means the marker was found but its JSON could not be
	// decoded or lacked results.listings.
	ErrPayloadMalformed = errors.New("embedded listing payload malformed")
)

// FetchError is returned for transport failures and non-2xx responses.
// StatusCode is 0 when no response was received.
type FetchError struct {
	Path       string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("fetch %s: status %d: %v", e.Path, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.Path, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Transient reports whether retrying the same request may succeed.
// Certificate failures are permanent.
func (e *FetchError) Transient() bool {
	switch {
	case isCertificateError(e.Err):
		return false
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	}
	return false
}

func isTransient(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Transient()
	}
	return false
}

func isCertificateError(err error) bool {
	var (
		verifyErr   *tls.CertificateVerificationError
		unknownErr  x509.UnknownAuthorityError
		hostnameErr x509.HostnameError
		invalidErr  x509.CertificateInvalidError
	)
	return errors.As(err, &verifyErr) ||
		errors.As(err, &unknownErr) ||
		errors.As(err, &hostnameErr) ||
		errors.As(err, &invalidErr)
}
