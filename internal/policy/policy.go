// Package policy is the single capability table for role-gated actions.
// Handlers and services ask Allowed(role, action) instead of repeating
// inline role conditionals per route.
package policy

import "github.com/jobtradesasa/server/internal/models"

type Action string

const (
	ActionJobCreate     Action = "job.create"
	ActionJobAccept     Action = "job.accept"
	ActionJobAdvance    Action = "job.advance"
	ActionJobCancel     Action = "job.cancel"
	ActionRatingCreate  Action = "rating.create"
	ActionProviderStats Action = "provider.stats"
)

var capabilities = map[models.Role]map[Action]bool{
	models.RoleRequester: {
		ActionJobCreate:    true,
		ActionJobCancel:    true,
		ActionRatingCreate: true,
	},
	models.RoleProvider: {
		ActionJobAccept:     true,
		ActionJobAdvance:    true,
		ActionJobCancel:     true,
		ActionProviderStats: true,
	},
	models.RoleAdmin: {
		ActionJobCancel: true,
	},
}

func Allowed(role models.Role, action Action) bool {
	return capabilities[role][action]
}
