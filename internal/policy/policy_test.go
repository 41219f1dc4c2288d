package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobtradesasa/server/internal/models"
)

func TestRequesterCapabilities(t *testing.T) {
	require.True(t, Allowed(models.RoleRequester, ActionJobCreate))
	require.True(t, Allowed(models.RoleRequester, ActionJobCancel))
	require.True(t, Allowed(models.RoleRequester, ActionRatingCreate))

	require.False(t, Allowed(models.RoleRequester, ActionJobAccept))
	require.False(t, Allowed(models.RoleRequester, ActionJobAdvance))
	require.False(t, Allowed(models.RoleRequester, ActionProviderStats))
}

func TestProviderCapabilities(t *testing.T) {
	require.True(t, Allowed(models.RoleProvider, ActionJobAccept))
	require.True(t, Allowed(models.RoleProvider, ActionJobAdvance))
	require.True(t, Allowed(models.RoleProvider, ActionJobCancel))

	require.False(t, Allowed(models.RoleProvider, ActionJobCreate))
	require.False(t, Allowed(models.RoleProvider, ActionRatingCreate))
}

func TestUnknownRoleHasNoCapabilities(t *testing.T) {
	require.False(t, Allowed(models.Role("ghost"), ActionJobCreate))
	require.False(t, Allowed(models.Role(""), ActionJobAccept))
}
