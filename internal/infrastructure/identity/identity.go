// Package identity verifies federated logins with their issuers.
package identity

import (
	"fmt"

	"github.com/collabhub/timesheet-api/internal/core/domain"
)

func reject(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrUnverifiedIdentity, fmt.Sprintf(format, args...))
}
