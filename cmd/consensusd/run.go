package main

import (
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc"

	"github.com/tessellate-network/consensuscore/common/logging"
	"github.com/tessellate-network/consensuscore/common/metrics"
	"github.com/tessellate-network/consensuscore/config"
	"github.com/tessellate-network/consensuscore/consensus"
	"github.com/tessellate-network/consensuscore/consensus/dagstate"
	"github.com/tessellate-network/consensuscore/consensus/txpool"
	"github.com/tessellate-network/consensuscore/consensus/types"
	"github.com/tessellate-network/consensuscore/crypto/signature"
	"github.com/tessellate-network/consensuscore/network/grpcapi"
	"github.com/tessellate-network/consensuscore/storage/badger"
)

func newRunCmd(v *viper.Viper) *cobra.Command {
	var committeeFile string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start this node's consensus core and BlockGossip service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(v, committeeFile)
		},
	}
	config.BindFlags(cmd.Flags(), v)
	cmd.Flags().StringVar(&committeeFile, "committee", "", "path to the committee config file")
	cmd.MarkFlagRequired("committee")

	return cmd
}

func run(v *viper.Viper, committeeFile string) error {
	cfg, err := config.Load(v, committeeFile)
	if err != nil {
		return err
	}

	lvl, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if err := logging.Initialize(os.Stderr, lvl, logging.FmtLogfmt); err != nil {
		return err
	}
	logger := logging.GetLogger("cmd/consensusd")

	committee, err := config.BuildCommittee(cfg.Epoch, cfg.Committee)
	if err != nil {
		return fmt.Errorf("consensusd: %w", err)
	}

	priv, err := loadPrivateKey(cfg.KeyFile)
	if err != nil {
		return fmt.Errorf("consensusd: %w", err)
	}
	signer := signature.NewSigner(priv)

	store, err := badger.Open(cfg.StorageDir)
	if err != nil {
		return fmt.Errorf("consensusd: open store: %w", err)
	}
	defer store.Close()

	state, err := dagstate.Load(committee, store)
	if err != nil {
		return fmt.Errorf("consensusd: %w", err)
	}
	txConsumer := txpool.New(txpool.DefaultMaxBytesPerBlock)

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("consensusd: metrics: %w", err)
	}

	self := types.AuthorityIndex(cfg.SelfIndex)
	if a, ok := committee.Authority(self); !ok || !a.PublicKey.Equal(signer.Public()) {
		return fmt.Errorf("consensusd: self_index %d does not match the loaded key in the committee file", self)
	}

	core, receivers := consensus.New(consensus.Config{
		Epoch:               committee.Epoch(),
		Self:                self,
		Committee:           committee,
		Signer:              signer,
		NumLeadersPerRound:  cfg.NumLeaders,
		State:               state,
		TransactionConsumer: txConsumer,
		Metrics:             m,
	})
	_ = receivers // subscribed by downstream execution/observability, out of scope here

	grpcServer := grpc.NewServer()
	grpcapi.RegisterBlockGossipServer(grpcServer, grpcapi.NewServer(core, committee))

	lis, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("consensusd: listen %s: %w", cfg.ListenAddr, err)
	}

	go func() {
		http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		_ = http.ListenAndServe(":9611", nil)
	}()

	logger.Info("consensusd starting", "listen_addr", cfg.ListenAddr, "self", self)
	return grpcServer.Serve(lis)
}

func loadPrivateKey(path string) (signature.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file %s: %w", path, err)
	}
	return signature.PrivateKey(raw), nil
}
