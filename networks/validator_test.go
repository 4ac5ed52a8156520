package networks

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dappforge/walletbridge/types"
)

func TestRegistry(t *testing.T) {
	registry := NewRegistry()

	info, ok := registry.Lookup(1)
	require.True(t, ok)
	require.Equal(t, "Ethereum Mainnet", info.Name)

	_, ok = registry.Lookup(999)
	require.False(t, ok)

	require.Equal(t, "Sepolia", registry.Name(11155111))
	require.Equal(t, "Chain ID 999", registry.Name(999))
	require.Equal(t, []string{"Ethereum Mainnet", "Chain ID 999"}, registry.Names([]types.ChainID{1, 999}))
}

func TestValidator(t *testing.T) {
	registry := NewRegistry()

	t.Run("accepts allowed chains", func(t *testing.T) {
		v := NewValidator(registry, []uint64{1, 11155111})
		require.True(t, v.IsSupported(1))
		require.True(t, v.IsSupported(11155111))
		require.NoError(t, v.Validate(1))
	})

	t.Run("rejects with named networks", func(t *testing.T) {
		v := NewValidator(registry, []uint64{1, 11155111})
		err := v.Validate(137)
		require.Error(t, err)

		var mismatch *MismatchError
		require.ErrorAs(t, err, &mismatch)
		require.Equal(t, types.ChainID(137), mismatch.ChainID)
		require.Equal(t, []string{"Ethereum Mainnet", "Sepolia"}, mismatch.Supported)
		require.Equal(t, "unsupported network 137, please switch to: Ethereum Mainnet, Sepolia", err.Error())
	})

	t.Run("dedupes and sorts the allow-list", func(t *testing.T) {
		v := NewValidator(registry, []uint64{11155111, 1, 1, 11155111})
		require.Equal(t, []types.ChainID{1, 11155111}, v.Supported())
	})

	t.Run("unknown allowed chain falls back to a generic name", func(t *testing.T) {
		v := NewValidator(registry, []uint64{424242})
		err := v.Validate(1)
		require.Error(t, err)
		require.Contains(t, err.Error(), "Chain ID 424242")
	})
}
