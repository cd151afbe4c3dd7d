package identity_test

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"

	"github.com/brightform/userhub/internal/identity"
)

func TestStaticProviderEnforcesEmailUniqueness(t *testing.T) {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	provider := identity.NewStaticProvider(node, true)

	first, err := provider.Signup(context.Background(), identity.SignupParams{Email: "ann@x.com", Password: "longenough1"})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	require.IsType(t, identity.ActiveSession{}, first.Confirmation)

	_, err = provider.Signup(context.Background(), identity.SignupParams{Email: "ANN@x.com", Password: "longenough1"})
	require.ErrorIs(t, err, identity.ErrConflict)
}

func TestStaticProviderDeleteFreesEmail(t *testing.T) {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	provider := identity.NewStaticProvider(node, false)

	signup, err := provider.Signup(context.Background(), identity.SignupParams{Email: "bob@x.com", Password: "longenough1"})
	require.NoError(t, err)
	require.IsType(t, identity.PendingConfirmation{}, signup.Confirmation)

	require.NoError(t, provider.Delete(context.Background(), signup.ID))

	again, err := provider.Signup(context.Background(), identity.SignupParams{Email: "bob@x.com", Password: "longenough1"})
	require.NoError(t, err)
	require.NotEqual(t, signup.ID, again.ID)
}
