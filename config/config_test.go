package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/fieldmesh/topology"
	"github.com/luxfi/fieldmesh/wire"
)

func TestEmbeddedConfigVerifies(t *testing.T) {
	require.NoError(t, EmbeddedConfig.Verify())
}

func TestClusterConfigVerifies(t *testing.T) {
	require.NoError(t, ClusterConfig.Verify())
}

func TestSimConfigVerifies(t *testing.T) {
	require.NoError(t, SimConfig.Verify())
}

func TestZeroKIsRejected(t *testing.T) {
	cfg := EmbeddedConfig
	cfg.K = 0
	require.ErrorIs(t, cfg.Verify(), ErrInvalidK)
}

func TestMinNeighborsAboveKIsRejected(t *testing.T) {
	cfg := EmbeddedConfig
	cfg.MinNeighbors = cfg.K + 1
	require.ErrorIs(t, cfg.Verify(), ErrMinNeighborsTooHigh)
}

func TestTimeoutCountMustExceedSuspectThreshold(t *testing.T) {
	cfg := EmbeddedConfig
	cfg.TimeoutCount = cfg.SuspectThreshold
	require.ErrorIs(t, cfg.Verify(), ErrInvalidTimeoutCount)
}

func TestBuilderRejectsZeroK(t *testing.T) {
	_, err := NewBuilder().FromProfile(ProfileEmbedded).WithK(0).Build()
	require.ErrorIs(t, err, ErrInvalidK)
}

func TestBuilderAutoLowersMinNeighbors(t *testing.T) {
	cfg, err := NewBuilder().FromProfile(ProfileEmbedded).WithK(1).Build()
	require.NoError(t, err)
	require.Equal(t, 1, cfg.K)
	require.LessOrEqual(t, cfg.MinNeighbors, cfg.K)
}

func TestBuilderUnknownProfile(t *testing.T) {
	_, err := NewBuilder().FromProfile("nonexistent").Build()
	require.ErrorIs(t, err, ErrUnknownProfile)
}

func TestToModuleConfigCarriesIdentity(t *testing.T) {
	mc := EmbeddedConfig.ToModuleConfig(wire.ModuleID(3), topology.Position{X: 1, Y: 2, Z: 3}, 0, 0, nil)
	require.Equal(t, wire.ModuleID(3), mc.Self)
	require.Equal(t, EmbeddedConfig.K, mc.K)
	require.Equal(t, uint64(EmbeddedConfig.HeartbeatPeriod.Microseconds()), mc.HeartbeatPeriodUS)
}
