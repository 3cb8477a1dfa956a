package main

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"ammCore/internal/address"
)

func newAddressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Derive market, pool, authority and liquidity mint addresses",
		RunE:  runAddress,
	}
	cmd.Flags().String("market", "", "market id (base58 key or label)")
	cmd.Flags().String("asset-a", "", "asset A mint (base58 key or label)")
	cmd.Flags().String("asset-b", "", "asset B mint (base58 key or label)")
	cmd.Flags().String("owner", "", "optional owner; prints its holdings of both assets and the shares")
	return cmd
}

type addressOutput struct {
	MarketID solana.PublicKey `json:"market_id"`
	AssetA   solana.PublicKey `json:"asset_a"`
	AssetB   solana.PublicKey `json:"asset_b"`
	address.PoolAddresses
	Holdings map[string]solana.PublicKey `json:"holdings,omitempty"`
}

func runAddress(cmd *cobra.Command, _ []string) error {
	refs := make([]solana.PublicKey, 0, 3)
	for _, flag := range []string{"market", "asset-a", "asset-b"} {
		ref, _ := cmd.Flags().GetString(flag)
		key, err := address.Resolve(ref)
		if err != nil {
			return fmt.Errorf("--%s: %w", flag, err)
		}
		refs = append(refs, key)
	}

	addrs, err := address.Pool(refs[0], refs[1], refs[2])
	if err != nil {
		return err
	}
	out := addressOutput{MarketID: refs[0], AssetA: refs[1], AssetB: refs[2], PoolAddresses: addrs}

	if ref, _ := cmd.Flags().GetString("owner"); ref != "" {
		owner, err := address.Resolve(ref)
		if err != nil {
			return fmt.Errorf("--owner: %w", err)
		}
		out.Holdings = make(map[string]solana.PublicKey, 3)
		for name, mint := range map[string]solana.PublicKey{"asset_a": refs[1], "asset_b": refs[2], "liquidity": addrs.Liquidity} {
			holding, err := address.Holding(owner, mint)
			if err != nil {
				return err
			}
			out.Holdings[name] = holding
		}
	}
	return writeJSON(cmd.OutOrStdout(), out)
}
