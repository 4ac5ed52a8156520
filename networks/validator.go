package networks

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dappforge/walletbridge/types"
)

// MismatchError reports a chain id outside the configured allow-list. The
// message enumerates the supported network names so it can be surfaced to the
// user as is.
type MismatchError struct {
	ChainID   types.ChainID
	Supported []string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("unsupported network %d, please switch to: %s",
		uint64(e.ChainID), strings.Join(e.Supported, ", "))
}

// Validator decides whether a chain id is acceptable. It is a pure function
// of the allow-list and registry captured at construction.
type Validator struct {
	allowed  map[types.ChainID]struct{}
	ordered  []types.ChainID
	registry *Registry
}

func NewValidator(registry *Registry, supported []uint64) *Validator {
	allowed := make(map[types.ChainID]struct{}, len(supported))
	ordered := make([]types.ChainID, 0, len(supported))
	for _, id := range supported {
		chainID := types.ChainID(id)
		if _, ok := allowed[chainID]; ok {
			continue
		}
		allowed[chainID] = struct{}{}
		ordered = append(ordered, chainID)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	return &Validator{allowed: allowed, ordered: ordered, registry: registry}
}

func (v *Validator) IsSupported(chainID types.ChainID) bool {
	_, ok := v.allowed[chainID]
	return ok
}

// Validate returns a *MismatchError when the chain is not supported.
func (v *Validator) Validate(chainID types.ChainID) error {
	if v.IsSupported(chainID) {
		return nil
	}
	return &MismatchError{
		ChainID:   chainID,
		Supported: v.registry.Names(v.ordered),
	}
}

// Supported returns the allow-list in ascending order.
func (v *Validator) Supported() []types.ChainID {
	out := make([]types.ChainID, len(v.ordered))
	copy(out, v.ordered)
	return out
}
