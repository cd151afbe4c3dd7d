package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brightform/userhub/internal/domain"
)

func TestParseRole(t *testing.T) {
	role, ok := domain.ParseRole("admin")
	require.True(t, ok)
	require.Equal(t, domain.RoleAdmin, role)

	role, ok = domain.ParseRole("  User ")
	require.True(t, ok)
	require.Equal(t, domain.RoleUser, role)

	_, ok = domain.ParseRole("root")
	require.False(t, ok)

	_, ok = domain.ParseRole("")
	require.False(t, ok)
}
