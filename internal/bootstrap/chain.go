package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/osse101/TriviaCast_Go/internal/chain"
	"github.com/osse101/TriviaCast_Go/internal/config"
)

// InitializeDistributor connects to the prize contract when chain settings are
// complete. Otherwise it returns chain.Disabled, which fails every submission.
// The returned close func is always non-nil.
func InitializeDistributor(ctx context.Context, cfg *config.Config) (chain.Distributor, func(), error) {
	if !cfg.ChainEnabled() {
		slog.Warn(LogMsgChainDisabled)
		return chain.Disabled{}, func() {}, nil
	}

	distributor, client, err := chain.Dial(ctx, chain.Config{
		RPCURL:     cfg.ChainRPCURL,
		ChainID:    cfg.ChainID,
		Contract:   cfg.PrizeContract,
		PrivateKey: cfg.OperatorPrivateKey,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", ErrMsgFailedDialRPC, err)
	}

	slog.Info(LogMsgChainEnabled,
		"chain_id", cfg.ChainID,
		"contract", cfg.PrizeContract,
		"operator", distributor.Operator().Hex())

	return distributor, client.Close, nil
}
