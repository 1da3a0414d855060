package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// External service errors
var (
	ErrAssetUpload   = errors.New("image upload failed")
	ErrConfigMissing = errors.New("configuration missing")
	ErrConfigInvalid = errors.New("configuration invalid")
)

// NewAssetUploadError reports that the image asset store rejected or never accepted an upload.
func NewAssetUploadError(attempts int, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadGateway,
		err:        ErrAssetUpload,
		Details:    fmt.Sprintf("Image upload failed after %d attempt(s)", attempts),
		Field:      "image",
		Cause:      cause,
	}
}

func NewConfigError(configName string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrConfigInvalid,
		Details:    fmt.Sprintf("Configuration error for %s", configName),
		Cause:      cause,
		Field:      configName,
	}
}

func NewConfigMissingError(configName string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrConfigMissing,
		Details:    fmt.Sprintf("Missing configuration: %s", configName),
		Field:      configName,
	}
}

func IsAssetUploadError(err error) bool {
	return errors.Is(err, ErrAssetUpload)
}

func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfigMissing) || errors.Is(err, ErrConfigInvalid)
}
