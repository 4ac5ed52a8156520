package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAccount(t *testing.T) {
	t.Run("normalizes to lowercase", func(t *testing.T) {
		account := NewAccount("0x52908400098527886E0F7030069857D2E4169EE7")
		require.Equal(t, Account("0x52908400098527886e0f7030069857d2e4169ee7"), account)
	})

	t.Run("invalid input maps to zero", func(t *testing.T) {
		for _, raw := range []string{"", "0x123", "not-an-address", "0xzz08400098527886e0f7030069857d2e4169ee7"} {
			require.True(t, NewAccount(raw).IsZero(), "input %q", raw)
		}
	})
}

func TestAccountTruncate(t *testing.T) {
	account := NewAccount("0xABCD006e4B5ed41dDaF25c60F0F1bbBE7690eF01")
	require.Equal(t, "0xabcd…ef01", account.Truncate())
	require.Equal(t, "", NoAccount.Truncate())
}
