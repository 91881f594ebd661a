package pickem

import (
	"time"

	"github.com/abrezinsky/pickem/internal/auth"
	"github.com/abrezinsky/pickem/internal/models"
)

// CanSubmit gates pick creation and edits: an authenticated participant and
// an active round are both required.
func CanSubmit(round *models.Round, identity *auth.Identity, now time.Time) bool {
	if identity == nil || identity.UID == "" {
		return false
	}
	return Status(round, now) == models.RoundActive
}
