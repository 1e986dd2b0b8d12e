package config_test

import (
	"errors"

	"go.trai.ch/zerr"
)

func fieldOf(err error) string {
	var zErr *zerr.Error
	for errors.As(err, &zErr) {
		if field, ok := zErr.Metadata()["field"].(string); ok {
			return field
		}
		err = errors.Unwrap(zErr)
		if err == nil {
			return ""
		}
	}
	return ""
}
