package client

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"balance_api/internal/app/port"
	"balance_api/internal/domain/entity"
	"balance_api/pkg/metrics"
)

// ERC20 ABI minimal part for balanceOf
const erc20ABI = `[{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}]`

var (
	parsedERC20ABI  abi.ABI
	parsedERC20Once sync.Once
	erc20MethodID   []byte
)

func initParsedERC20ABI() {
	parsedERC20Once.Do(func() {
		var err error
		parsedERC20ABI, err = abi.JSON(strings.NewReader(erc20ABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse ERC20 ABI: %v", err))
		}
		balanceOfMethod, ok := parsedERC20ABI.Methods["balanceOf"]
		if !ok {
			panic("balanceOf method not found in parsed ERC20 ABI")
		}
		erc20MethodID = balanceOfMethod.ID
	})
}

// EVMClient implements port.ChainReader for EVM-compatible chains. All token
// reads for a network go out as a single JSON-RPC batch: eth_getBalance for
// the native coin and eth_call of balanceOf for ERC20 contracts.
type EVMClient struct {
	ethClient   *ethclient.Client
	network     entity.Network
	limiter     *rate.Limiter
	callTimeout time.Duration
	logger      *zap.Logger
}

// NewEVMClient dials the network's resolved RPC endpoint and returns a reader
// for it. The limiter bounds the request rate against the endpoint; pass nil
// to disable limiting.
func NewEVMClient(
	network entity.Network,
	connectionTimeout time.Duration,
	callTimeout time.Duration,
	limiter *rate.Limiter,
	logger *zap.Logger,
) (port.ChainReader, error) {
	initParsedERC20ABI()

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	ethClient, err := ethclient.DialContext(ctx, network.RPCURL)
	if err != nil {
		return nil, entity.NewUpstreamError(network.Key, fmt.Errorf("failed to connect to RPC: %w", err))
	}

	return &EVMClient{
		ethClient:   ethClient,
		network:     network,
		limiter:     limiter,
		callTimeout: callTimeout,
		logger:      logger.Named("EVMClient").With(zap.String("network", network.Key)),
	}, nil
}

// FetchRawBalances implements port.ChainReader.
func (c *EVMClient) FetchRawBalances(ctx context.Context, address string) (map[string]*big.Int, error) {
	symbols := c.network.TokenSymbols()
	if len(symbols) == 0 {
		return map[string]*big.Int{}, nil
	}

	wallet := common.HexToAddress(address)
	batchElems := make([]rpc.BatchElem, len(symbols))

	for i, symbol := range symbols {
		token := c.network.Tokens[symbol]
		if token.IsNative() {
			batchElems[i] = rpc.BatchElem{
				Method: "eth_getBalance",
				Args:   []interface{}{wallet, "latest"},
				Result: new(*hexutil.Big),
			}
			continue
		}

		callData := append(erc20MethodID, common.LeftPadBytes(wallet.Bytes(), 32)...)
		callArgs := map[string]interface{}{
			"to":   common.HexToAddress(token.Contract),
			"data": hexutil.Bytes(callData),
		}
		batchElems[i] = rpc.BatchElem{
			Method: "eth_call",
			Args:   []interface{}{callArgs, "latest"},
			Result: new(hexutil.Bytes),
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, entity.NewUpstreamError(c.network.Key, err)
		}
	}

	rpcCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	start := time.Now()
	err := c.ethClient.Client().BatchCallContext(rpcCtx, batchElems)
	metrics.ObserveUpstream("rpc_"+c.network.Key, time.Since(start), err)
	if err != nil {
		c.logger.Error("RPC batch call failed", zap.String("wallet", address), zap.Error(err))
		return nil, entity.NewUpstreamError(c.network.Key, fmt.Errorf("RPC batch call failed: %w", err))
	}

	balances := make(map[string]*big.Int, len(symbols))
	for i, symbol := range symbols {
		if batchElems[i].Error != nil {
			return nil, entity.NewUpstreamError(c.network.Key,
				fmt.Errorf("failed to fetch %s balance: %w", symbol, batchElems[i].Error))
		}
		raw, err := decodeBalance(c.network.Tokens[symbol], batchElems[i].Result)
		if err != nil {
			return nil, entity.NewUpstreamError(c.network.Key, err)
		}
		balances[symbol] = raw
	}

	c.logger.Debug("Fetched raw balances", zap.String("wallet", address), zap.Int("tokens", len(balances)))
	return balances, nil
}

// Network implements port.ChainReader.
func (c *EVMClient) Network() entity.Network {
	return c.network
}

func decodeBalance(token entity.Token, result interface{}) (*big.Int, error) {
	if token.IsNative() {
		value, ok := result.(**hexutil.Big)
		if !ok || value == nil || *value == nil {
			return nil, fmt.Errorf("failed to decode native balance for %s: unexpected type or nil result", token.Symbol)
		}
		return (*big.Int)(*value), nil
	}

	value, ok := result.(*hexutil.Bytes)
	if !ok || value == nil {
		return nil, fmt.Errorf("failed to decode token balance for %s: unexpected type or nil result", token.Symbol)
	}
	// Some RPC nodes return empty data for contracts with no state for the
	// queried account.
	if len(*value) == 0 {
		return big.NewInt(0), nil
	}

	unpacked, err := parsedERC20ABI.Unpack("balanceOf", *value)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack balanceOf result for %s: %w", token.Symbol, err)
	}
	if len(unpacked) == 0 {
		return nil, fmt.Errorf("balanceOf unpack returned no data for %s", token.Symbol)
	}
	balance, ok := unpacked[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("failed to assert unpacked balanceOf result to *big.Int for %s, got %T", token.Symbol, unpacked[0])
	}
	return balance, nil
}
