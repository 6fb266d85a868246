/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package chain

import (
	"context"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"strings"
	"time"

	"raffle-sync-go/internal/models"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/sync/errgroup"
)

// weiDecimals is the exponent between wei and ether.
const weiDecimals = 18

// Backend is the subset of the go-ethereum client used by the service.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

var _ Backend = (*ethclient.Client)(nil)

type Service struct {
	backend     Backend
	closer      func()
	contract    common.Address
	startBlock  uint64
	callTimeout time.Duration
}

// NewService dials the RPC endpoint and binds the service to the deployment's contract.
func NewService(ctx context.Context, cfg models.ChainConfig, deployment models.Deployment) (*Service, error) {
	if cfg.RpcUrl == "" {
		return nil, fmt.Errorf("chain rpc url cannot be empty")
	}
	if !common.IsHexAddress(deployment.Address) {
		return nil, fmt.Errorf("invalid contract address %q for deployment %s", deployment.Address, deployment.Name)
	}

	httpClient, err := createCustomHttpClient()
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}

	rpcClient, err := rpc.DialOptions(ctx, cfg.RpcUrl, rpc.WithHTTPClient(&httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to dial rpc endpoint: %w", err)
	}
	client := ethclient.NewClient(rpcClient)

	service := NewServiceWithBackend(client, deployment, cfg.CallTimeout)
	service.closer = client.Close

	if deployment.ChainId != 0 {
		chainId, err := service.chainId(ctx)
		if err != nil {
			client.Close()
			return nil, err
		}
		if chainId.Uint64() != deployment.ChainId {
			client.Close()
			return nil, fmt.Errorf("rpc endpoint serves chain %s, deployment %s expects %d",
				chainId.String(), deployment.Name, deployment.ChainId)
		}
	}

	zap.L().Info("Chain service initialized",
		zap.String("deployment", deployment.Name),
		zap.String("network", deployment.Network),
		zap.String("contract", service.contract.Hex()),
		zap.Uint64("start_block", deployment.StartBlock))
	return service, nil
}

// NewServiceWithBackend binds an existing backend to the deployment's contract.
func NewServiceWithBackend(backend Backend, deployment models.Deployment, callTimeout time.Duration) *Service {
	if callTimeout <= 0 {
		callTimeout = 10 * time.Second
	}
	return &Service{
		backend:     backend,
		contract:    common.HexToAddress(deployment.Address),
		startBlock:  deployment.StartBlock,
		callTimeout: callTimeout,
	}
}

func createCustomHttpClient() (http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return http.Client{}, err
	}

	return http.Client{
		Transport: tr,
		Timeout:   60 * time.Second,
	}, nil
}

func (s *Service) Close() {
	if s.closer != nil {
		s.closer()
	}
}

func (s *Service) Contract() common.Address {
	return s.contract
}

func (s *Service) StartBlock() uint64 {
	return s.startBlock
}

func (s *Service) BlockNumber(ctx context.Context) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	head, err := s.backend.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("unable to get block number: %w", err)
	}
	return head, nil
}

func (s *Service) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	logs, err := s.backend.FilterLogs(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("unable to filter logs: %w", err)
	}
	return logs, nil
}

// FetchSnapshot reads every view the round view depends on. All calls must succeed.
func (s *Service) FetchSnapshot(ctx context.Context) (models.ChainSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	var (
		remaining, players, roundId, fee, balance *big.Int
		phase                                     uint8
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		remaining, err = s.callUint(gctx, methodTimeUntilNextDraw, nil)
		return err
	})
	g.Go(func() (err error) {
		phase, err = s.callUint8(gctx, methodRaffleState, nil)
		return err
	})
	g.Go(func() (err error) {
		players, err = s.callUint(gctx, methodNumberOfPlayers, nil)
		return err
	})
	g.Go(func() (err error) {
		roundId, err = s.callUint(gctx, methodRoundId, nil)
		return err
	})
	g.Go(func() (err error) {
		fee, err = s.callUint(gctx, methodEntranceFee, nil)
		return err
	})
	g.Go(func() (err error) {
		balance, err = s.backend.BalanceAt(gctx, s.contract, nil)
		if err != nil {
			return fmt.Errorf("unable to get contract balance: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.ChainSnapshot{}, err
	}

	return models.ChainSnapshot{
		SecondsRemaining: saturatingUint64(remaining),
		Phase:            models.RafflePhase(phase),
		PlayerCount:      saturatingUint64(players),
		RoundId:          saturatingUint64(roundId),
		EntranceFee:      WeiToEther(fee),
		PrizePool:        WeiToEther(balance),
		FetchedAt:        time.Now().UTC(),
	}, nil
}

// RoundIdAt reads the contract round id as of the given block.
func (s *Service) RoundIdAt(ctx context.Context, blockNumber uint64) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	roundId, err := s.callUint(ctx, methodRoundId, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return 0, err
	}
	return saturatingUint64(roundId), nil
}

func (s *Service) EntranceFee(ctx context.Context) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	fee, err := s.callUint(ctx, methodEntranceFee, nil)
	if err != nil {
		return decimal.Zero, err
	}
	return WeiToEther(fee), nil
}

// RecentWinner returns the last winner recorded by the contract, empty if none.
func (s *Service) RecentWinner(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	out, err := s.call(ctx, methodRecentWinner, nil)
	if err != nil {
		return "", err
	}
	winner, ok := out[0].(common.Address)
	if !ok {
		return "", fmt.Errorf("unexpected %s result type %T", methodRecentWinner, out[0])
	}
	if winner == (common.Address{}) {
		return "", nil
	}
	return strings.ToLower(winner.Hex()), nil
}

// PreflightEnter simulates enterRaffle from the given wallet. A contract refusal is
// returned as *TxRejection; transport failures are returned as plain errors.
func (s *Service) PreflightEnter(ctx context.Context, from string, amount decimal.Decimal) error {
	if !common.IsHexAddress(from) {
		return fmt.Errorf("invalid wallet address %q", from)
	}

	fee, err := s.EntranceFee(ctx)
	if err != nil {
		return err
	}
	if amount.LessThan(fee) {
		return newRejection(CodeSendMoreToEnter)
	}

	data, err := raffleABI.Pack(methodEnterRaffle)
	if err != nil {
		return fmt.Errorf("unable to pack %s: %w", methodEnterRaffle, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	msg := ethereum.CallMsg{
		From:  common.HexToAddress(from),
		To:    &s.contract,
		Value: EtherToWei(amount),
		Data:  data,
	}
	if _, err := s.backend.CallContract(ctx, msg, nil); err != nil {
		if isRevert(err) {
			rejection := ClassifyTxError(err)
			zap.L().Info("Entry preflight rejected",
				zap.String("wallet", from),
				zap.String("code", rejection.Code))
			return rejection
		}
		return fmt.Errorf("unable to simulate %s: %w", methodEnterRaffle, err)
	}
	return nil
}

func (s *Service) chainId(ctx context.Context) (*big.Int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	chainId, err := s.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to get chain id: %w", err)
	}
	return chainId, nil
}

func (s *Service) call(ctx context.Context, method string, blockNumber *big.Int) ([]interface{}, error) {
	data, err := raffleABI.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("unable to pack %s: %w", method, err)
	}

	raw, err := s.backend.CallContract(ctx, ethereum.CallMsg{To: &s.contract, Data: data}, blockNumber)
	if err != nil {
		return nil, fmt.Errorf("unable to call %s: %w", method, err)
	}

	out, err := raffleABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unable to unpack %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty %s result", method)
	}
	return out, nil
}

func (s *Service) callUint(ctx context.Context, method string, blockNumber *big.Int) (*big.Int, error) {
	out, err := s.call(ctx, method, blockNumber)
	if err != nil {
		return nil, err
	}
	value, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s result type %T", method, out[0])
	}
	return value, nil
}

func (s *Service) callUint8(ctx context.Context, method string, blockNumber *big.Int) (uint8, error) {
	out, err := s.call(ctx, method, blockNumber)
	if err != nil {
		return 0, err
	}
	value, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected %s result type %T", method, out[0])
	}
	return value, nil
}

// WeiToEther converts a wei amount to ether. A nil amount is zero.
func WeiToEther(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -weiDecimals)
}

// EtherToWei converts an ether amount to wei, truncating below one wei.
func EtherToWei(amount decimal.Decimal) *big.Int {
	return amount.Shift(weiDecimals).BigInt()
}

func saturatingUint64(v *big.Int) uint64 {
	if v == nil || v.Sign() < 0 {
		return 0
	}
	if !v.IsUint64() {
		return ^uint64(0)
	}
	return v.Uint64()
}
