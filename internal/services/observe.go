package services

import (
	"strings"

	"github.com/taskcoin/backend/internal/metrics"
	"github.com/taskcoin/backend/internal/models"
)

// observe counts refused operations and passes err through unchanged.
func observe(op string, err error) error {
	if err != nil {
		metrics.RecordRejection(op, strings.ToLower(models.Kind(err)))
	}
	return err
}

func isRole(actor *models.Account, role string) bool {
	return actor != nil && actor.Role == role
}
