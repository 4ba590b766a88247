package graphbolt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSecurityPlan_DefaultsToEncryptedWithSystemTrust(t *testing.T) {
	cfg := NewConfig()
	plan, err := BuildSecurityPlan(NewAddress("localhost", 7687), cfg)
	require.NoError(t, err)
	assert.True(t, plan.Encrypted)
	require.NotNil(t, plan.TLSConfig)
	assert.False(t, plan.TLSConfig.InsecureSkipVerify)
	assert.True(t, plan.RoutingCompatible)
}

func TestBuildSecurityPlan_EncryptionExplicitlyDisabled(t *testing.T) {
	cfg := NewConfig(WithEncryption(false))
	plan, err := BuildSecurityPlan(NewAddress("localhost", 7687), cfg)
	require.NoError(t, err)
	assert.False(t, plan.Encrypted)
	assert.Nil(t, plan.TLSConfig)
}

func TestBuildSecurityPlan_TrustAllCertificatesSkipsVerification(t *testing.T) {
	cfg := NewConfig(WithTrust(TrustAllCertificates))
	plan, err := BuildSecurityPlan(NewAddress("localhost", 7687), cfg)
	require.NoError(t, err)
	assert.True(t, plan.TLSConfig.InsecureSkipVerify)
}

func TestBuildSecurityPlan_TrustOnFirstUseIsNotRoutingCompatible(t *testing.T) {
	cfg := NewConfig(WithTrust(TrustOnFirstUse))
	plan, err := BuildSecurityPlan(NewAddress("localhost", 7687), cfg)
	require.NoError(t, err)
	assert.False(t, plan.RoutingCompatible)
	assert.True(t, plan.TLSConfig.InsecureSkipVerify)
}

func TestBuildSecurityPlan_CustomCAIsNotImplemented(t *testing.T) {
	cfg := NewConfig(WithTrust(TrustCustomCASigned))
	_, err := BuildSecurityPlan(NewAddress("localhost", 7687), cfg)
	require.Error(t, err)
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestBuildSecurityPlan_UnknownTrustModeIsConfigurationError(t *testing.T) {
	cfg := NewConfig(WithTrust(TrustStrategy(99)))
	_, err := BuildSecurityPlan(NewAddress("localhost", 7687), cfg)
	require.Error(t, err)
	var cfgErr *ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
