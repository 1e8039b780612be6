package navresolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imsquery/squerytranslate/internal/registry"
)

func TestResolveViaNavOverride(t *testing.T) {
	b := registry.NewBuilder()
	b.SetNavOverride("AzureSubscriptionRole", "Role", registry.NavOverride{
		TargetTable: "UM_Roles", TargetEntity: "Role",
	})
	reg := b.Freeze()

	res, ok := Resolve("AzureSubscriptionRole", "Role", reg)
	require.True(t, ok)
	assert.Equal(t, "override", res.Source)
	assert.Equal(t, "UM_Roles", res.TargetTable)
	assert.Equal(t, "Role_Id", res.LocalKey, "FK convention default applies when override omits local_key")
	assert.Equal(t, "Id", res.ForeignKey)
	assert.Equal(t, "LEFT", res.JoinType)
}

func TestResolveViaForeignKeyConvention(t *testing.T) {
	b := registry.NewBuilder()
	b.BindEntity("AzureSubscriptionRole", "UR_AzureSubscriptionRoles")
	b.BindEntity("Role", "UM_Roles")
	b.SetForeignKey("UR_AzureSubscriptionRoles", "Role_Id", "UM_Roles", "Id")
	reg := b.Freeze()

	res, ok := Resolve("AzureSubscriptionRole", "Role", reg)
	require.True(t, ok)
	assert.Equal(t, "foreign_key", res.Source)
	assert.Equal(t, "UM_Roles", res.TargetTable)
	assert.Equal(t, "Role", res.TargetEntity)
	assert.Equal(t, "LEFT", res.JoinType)
}

func TestResolveViaResourceNavProp(t *testing.T) {
	b := registry.NewBuilder()
	b.SetResourceEntityType("Directory_FR_User", registry.ResourceEntityType{EntityTypeID: 2015})
	b.SetResourceNavProp("PresenceState", registry.ResourceNavProp{TargetEntity: "PresenceState"})
	reg := b.Freeze()

	res, ok := Resolve("Directory_FR_User", "PresenceState", reg)
	require.True(t, ok)
	assert.Equal(t, "resource_nav_prop", res.Source)
	assert.Equal(t, "UR_Resources", res.TargetTable)
	assert.Equal(t, "PresenceState_Id", res.LocalKey)
}

func TestResolveUnresolvedReturnsFalse(t *testing.T) {
	reg := registry.NewBuilder().Freeze()
	_, ok := Resolve("Unknown", "Nope", reg)
	assert.False(t, ok)
}

func TestResolveOverrideCarriesResourceSubType(t *testing.T) {
	b := registry.NewBuilder()
	b.SetNavOverride("Directory_FR_User", "PresenceState", registry.NavOverride{
		TargetTable: "UR_Resources", TargetEntity: "PresenceState", ResourceSubType: "PresenceState",
	})
	reg := b.Freeze()

	res, ok := Resolve("Directory_FR_User", "PresenceState", reg)
	require.True(t, ok)
	assert.Equal(t, "PresenceState", res.ResourceSubType)
	assert.Equal(t, "PresenceState_Id", res.LocalKey)
	assert.Equal(t, "Id", res.ForeignKey)
}

func TestResolvePrefersOverrideOverForeignKey(t *testing.T) {
	b := registry.NewBuilder()
	b.BindEntity("AzureSubscriptionRole", "UR_AzureSubscriptionRoles")
	b.SetForeignKey("UR_AzureSubscriptionRoles", "Role_Id", "UM_Roles", "Id")
	b.SetNavOverride("AzureSubscriptionRole", "Role", registry.NavOverride{
		TargetTable: "UM_OverriddenRoles", TargetEntity: "Role",
	})
	reg := b.Freeze()

	res, ok := Resolve("AzureSubscriptionRole", "Role", reg)
	require.True(t, ok)
	assert.Equal(t, "override", res.Source)
	assert.Equal(t, "UM_OverriddenRoles", res.TargetTable)
}
