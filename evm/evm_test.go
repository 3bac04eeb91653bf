package evm_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/openweb3-io/pkpkit/evm"
	"github.com/openweb3-io/pkpkit/types"
	"github.com/stretchr/testify/suite"
)

type EvmTestSuite struct {
	suite.Suite
}

func TestEvm(t *testing.T) {
	suite.Run(t, new(EvmTestSuite))
}

func (s *EvmTestSuite) signer() (addr types.Address, sign func(digest []byte) []byte) {
	require := s.Require()
	key, err := crypto.GenerateKey()
	require.NoError(err)
	addr = types.Address(crypto.PubkeyToAddress(key.PublicKey).Hex())
	sign = func(digest []byte) []byte {
		sig, err := crypto.Sign(digest, key)
		require.NoError(err)
		return sig
	}
	return addr, sign
}

func (s *EvmTestSuite) TestVerifyMessage() {
	require := s.Require()
	addr, sign := s.signer()

	msg := []byte("hello pkp")
	sig := sign(evm.MessageDigest(msg))

	require.True(evm.VerifyMessage(msg, sig, addr))
	require.True(evm.VerifyMessage(msg, evm.NormalizeV(sig), addr))

	// altering one byte of the message must invalidate the signature
	tampered := append([]byte{}, msg...)
	tampered[0] ^= 0x01
	require.False(evm.VerifyMessage(tampered, sig, addr))

	// and so must a wrong expected address
	require.False(evm.VerifyMessage(msg, sig, types.Address("0x388C818CA8B9251b393131C08a736A67ccB19297")))
}

func (s *EvmTestSuite) TestVerifyMalformedInput() {
	require := s.Require()
	addr, _ := s.signer()

	require.False(evm.VerifyMessage([]byte("msg"), nil, addr))
	require.False(evm.VerifyMessage([]byte("msg"), []byte{1, 2, 3}, addr))
	require.False(evm.VerifyMessage([]byte("msg"), make([]byte, 65), addr))

	_, err := evm.RecoverAddress(evm.MessageDigest([]byte("msg")), []byte{1})
	require.Error(err)
}

func (s *EvmTestSuite) TestNormalizeV() {
	require := s.Require()

	sig := make([]byte, 65)
	sig[64] = 1
	norm := evm.NormalizeV(sig)
	require.EqualValues(28, norm[64])
	// input untouched, normalization idempotent
	require.EqualValues(1, sig[64])
	require.EqualValues(28, evm.NormalizeV(norm)[64])
}

func (s *EvmTestSuite) TestPermitTypedData() {
	require := s.Require()
	addr, sign := s.signer()

	value := types.NewBigIntFromStr("1000000000000000000")
	args := &evm.PermitArgs{
		Token:     "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		TokenName: "USD Coin",
		Owner:     string(addr),
		Spender:   "0x388C818CA8B9251b393131C08a736A67ccB19297",
		Value:     &value,
		Nonce:     7,
		Deadline:  1893456000,
	}

	td, err := evm.PermitTypedData(big.NewInt(1), args)
	require.NoError(err)
	require.Equal("Permit", td.PrimaryType)

	digest, err := evm.TypedDataDigest(td)
	require.NoError(err)
	require.Len(digest, 32)

	sig := sign(digest)
	require.True(evm.VerifyTypedData(td, sig, addr))

	// a different deadline produces a different digest
	args.Deadline++
	td2, err := evm.PermitTypedData(big.NewInt(1), args)
	require.NoError(err)
	require.False(evm.VerifyTypedData(td2, sig, addr))
}

func (s *EvmTestSuite) TestPermitTypedDataInvalid() {
	require := s.Require()
	value := types.NewBigIntFromUint64(1)

	_, err := evm.PermitTypedData(big.NewInt(1), &evm.PermitArgs{
		Token:   "not-an-address",
		Owner:   "0x388C818CA8B9251b393131C08a736A67ccB19297",
		Spender: "0x388C818CA8B9251b393131C08a736A67ccB19297",
		Value:   &value,
	})
	require.Error(err)
}

type fakeRPC struct {
	nonce    uint64
	gasPrice *big.Int
	gas      uint64
	calls    int
}

func (f *fakeRPC) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	f.calls++
	return f.nonce, nil
}

func (f *fakeRPC) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	f.calls++
	return f.gasPrice, nil
}

func (f *fakeRPC) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	f.calls++
	return f.gas, nil
}

func (s *EvmTestSuite) TestBuildAndSignTx() {
	require := s.Require()
	ctx := context.Background()
	addr, sign := s.signer()

	rpc := &fakeRPC{nonce: 5, gasPrice: big.NewInt(2_000_000_000), gas: 21000}
	value := types.NewBigIntFromStr("3000")
	chainID := big.NewInt(11155111)

	unsigned, err := evm.BuildTx(ctx, rpc, chainID, common.HexToAddress(string(addr)), &evm.TxArgs{
		To:    "0x388C818CA8B9251b393131C08a736A67ccB19297",
		Value: &value,
	})
	require.NoError(err)
	require.Equal(uint64(5), unsigned.Tx.Nonce())
	require.Equal(uint64(21000), unsigned.Tx.Gas())
	require.Equal(ethtypes.LegacyTxType, int(unsigned.Tx.Type()))

	signed, err := unsigned.WithSignature(sign(unsigned.Digest()))
	require.NoError(err)

	sender, err := ethtypes.Sender(unsigned.Signer, signed)
	require.NoError(err)
	require.Equal(common.HexToAddress(string(addr)), sender)
}

func (s *EvmTestSuite) TestBuildDynamicFeeTx() {
	require := s.Require()
	ctx := context.Background()
	addr, sign := s.signer()

	rpc := &fakeRPC{nonce: 0, gas: 50000}
	value := types.NewBigIntFromUint64(1)
	feeCap := types.NewBigIntFromUint64(30_000_000_000)
	tipCap := types.NewBigIntFromUint64(1_000_000_000)
	nonce := uint64(9)

	unsigned, err := evm.BuildTx(ctx, rpc, big.NewInt(1), common.HexToAddress(string(addr)), &evm.TxArgs{
		To:                   "0x388C818CA8B9251b393131C08a736A67ccB19297",
		Value:                &value,
		Nonce:                &nonce,
		MaxFeePerGas:         &feeCap,
		MaxPriorityFeePerGas: &tipCap,
	})
	require.NoError(err)
	require.Equal(ethtypes.DynamicFeeTxType, int(unsigned.Tx.Type()))
	require.Equal(uint64(9), unsigned.Tx.Nonce())

	// explicit nonce means no nonce RPC; estimate still runs
	require.Equal(1, rpc.calls)

	// a 27/28 signature is accepted as well
	signed, err := unsigned.WithSignature(evm.NormalizeV(sign(unsigned.Digest())))
	require.NoError(err)
	sender, err := ethtypes.Sender(unsigned.Signer, signed)
	require.NoError(err)
	require.Equal(common.HexToAddress(string(addr)), sender)
}

func (s *EvmTestSuite) TestBuildTxInvalidAddress() {
	require := s.Require()
	rpc := &fakeRPC{}

	_, err := evm.BuildTx(context.Background(), rpc, big.NewInt(1), common.Address{}, &evm.TxArgs{
		To: "junk",
	})
	require.Error(err)
	require.Zero(rpc.calls)
}
