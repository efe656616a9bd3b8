package k8sclient

import (
	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

func isNotFound(err error) bool { return apierrors.IsNotFound(err) }

// IsUnsupportedMediaType reports whether err is the HTTP 415 a CRD's
// API server returns for a strategic-merge patch it doesn't support --
// the Native strategy's signal to fall back to a JSON merge patch.
func IsUnsupportedMediaType(err error) bool {
	return apierrors.IsUnsupportedMediaType(err)
}

// IsNotFound reports whether err is the "resource does not exist" the
// diff strategies use to decide between Added and a comparison path.
func IsNotFound(err error) bool { return isNotFound(err) }
