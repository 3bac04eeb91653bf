package lit_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/openweb3-io/pkpkit/auth"
	"github.com/openweb3-io/pkpkit/evm"
	"github.com/openweb3-io/pkpkit/lit"
	"github.com/openweb3-io/pkpkit/signer"
	"github.com/openweb3-io/pkpkit/types"
	"github.com/stretchr/testify/suite"
)

type LitTestSuite struct {
	suite.Suite
}

func TestLit(t *testing.T) {
	suite.Run(t, new(LitTestSuite))
}

func (s *LitTestSuite) masterAuthSig() *auth.AuthSig {
	require := s.Require()
	key, err := crypto.GenerateKey()
	require.NoError(err)
	local := signer.NewLocalSigner(key)

	authSig, err := auth.NewAuthSig(context.Background(), local, local.Address(), &auth.SigParams{
		Domain:  "pkpkit",
		URI:     "https://relay.example",
		ChainID: 175188,
		Grants:  []auth.Grant{{Resource: auth.PKPResource("*"), Ability: auth.AbilityPKPMinting}},
	})
	require.NoError(err)
	return authSig
}

func (s *LitTestSuite) TestNetworkConfig() {
	require := s.Require()

	for _, network := range lit.SupportedNetworks {
		require.True(network.Valid())
		cfg, err := network.Config()
		require.NoError(err)
		require.NotEmpty(cfg.RelayURL)
		require.NotEmpty(cfg.NodeURL)
		require.EqualValues(175188, cfg.RegistryChainID)
	}

	_, err := lit.Network("mordor").Config()
	require.ErrorIs(err, types.ErrUnknownNetwork)
	require.False(lit.Network("mordor").Valid())
}

func (s *LitTestSuite) TestMintPKP() {
	require := s.Require()

	pkpKey, err := crypto.GenerateKey()
	require.NoError(err)
	pubkey := hexutil.Encode(crypto.FromECDSAPub(&pkpKey.PublicKey))

	polls := 0
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal("secret", r.Header.Get("api-key"))
		require.NotEmpty(r.Header.Get("X-Request-Id"))

		switch r.URL.Path {
		case "/mint-next-and-add-auth-methods":
			var body map[string]any
			require.NoError(json.NewDecoder(r.Body).Decode(&body))
			require.EqualValues(2, body["keyType"])
			require.EqualValues(1, body["authMethodType"])
			require.NotEmpty(body["accessToken"])
			json.NewEncoder(w).Encode(map[string]string{"requestId": "req-1"})
		case "/auth/status/req-1":
			polls++
			if polls == 1 {
				json.NewEncoder(w).Encode(map[string]string{"status": "InProgress"})
				return
			}
			// relay reports only the public key; the client derives the rest
			json.NewEncoder(w).Encode(map[string]string{
				"status":       "Succeeded",
				"pkpPublicKey": pubkey,
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer relay.Close()

	client, err := lit.NewClient(lit.NetworkDatilDev, "secret",
		lit.WithRelayURL(relay.URL),
		lit.WithPollInterval(time.Millisecond),
	)
	require.NoError(err)

	pkp, err := client.MintPKP(context.Background(), &lit.MintRequest{AuthSig: s.masterAuthSig()})
	require.NoError(err)
	require.Equal(pubkey, pkp.PublicKey)
	require.Equal(types.Address(crypto.PubkeyToAddress(pkpKey.PublicKey).Hex()), pkp.Address)

	expectedToken, err := types.DeriveTokenID(pubkey)
	require.NoError(err)
	require.Equal(expectedToken, pkp.TokenID)
	require.Equal(2, polls)
}

func (s *LitTestSuite) TestMintPKPFailure() {
	require := s.Require()

	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/mint-next-and-add-auth-methods":
			json.NewEncoder(w).Encode(map[string]string{"requestId": "req-2"})
		default:
			json.NewEncoder(w).Encode(map[string]string{"status": "Failed", "error": "out of keys"})
		}
	}))
	defer relay.Close()

	client, err := lit.NewClient(lit.NetworkDatilDev, "",
		lit.WithRelayURL(relay.URL),
		lit.WithPollInterval(time.Millisecond),
	)
	require.NoError(err)

	_, err = client.MintPKP(context.Background(), &lit.MintRequest{AuthSig: s.masterAuthSig()})
	require.ErrorIs(err, types.ErrNetwork)
	require.Contains(err.Error(), "out of keys")
}

func (s *LitTestSuite) TestMintPKPRelayDown() {
	require := s.Require()

	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "relay exploded", http.StatusInternalServerError)
	}))
	defer relay.Close()

	client, err := lit.NewClient(lit.NetworkDatilDev, "", lit.WithRelayURL(relay.URL))
	require.NoError(err)

	_, err = client.MintPKP(context.Background(), &lit.MintRequest{AuthSig: s.masterAuthSig()})
	require.ErrorIs(err, types.ErrNetwork)
}

func (s *LitTestSuite) TestHandshakeSessionSigs() {
	require := s.Require()

	node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal("/web/sign_session_key", r.URL.Path)
		var body map[string]any
		require.NoError(json.NewDecoder(r.Body).Decode(&body))
		require.Contains(body["sessionKey"], "lit:session:")
		require.NotEmpty(body["expiration"])
		json.NewEncoder(w).Encode(map[string]any{
			"sessionSigs": map[string]any{
				"node1": map[string]string{"sig": "0x01", "derivedVia": "litSessionSignViaNacl"},
				"node2": map[string]string{"sig": "0x02", "derivedVia": "litSessionSignViaNacl"},
			},
		})
	}))
	defer node.Close()

	client, err := lit.NewClient(lit.NetworkDatilDev, "", lit.WithNodeURL(node.URL))
	require.NoError(err)

	sessionKey, err := auth.NewSessionKey()
	require.NoError(err)

	sigs, err := client.HandshakeSessionSigs(context.Background(), &lit.SessionRequest{
		SessionKey:   sessionKey,
		AuthSig:      s.masterAuthSig(),
		PKPPublicKey: "0x04aa",
		Expiration:   time.Now().Add(auth.DefaultSessionDuration),
	})
	require.NoError(err)
	require.Len(sigs, 2)
}

func (s *LitTestSuite) TestHandshakeNoSigs() {
	require := s.Require()

	node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"sessionSigs": map[string]any{}})
	}))
	defer node.Close()

	client, err := lit.NewClient(lit.NetworkDatilDev, "", lit.WithNodeURL(node.URL))
	require.NoError(err)

	sessionKey, err := auth.NewSessionKey()
	require.NoError(err)
	_, err = client.HandshakeSessionSigs(context.Background(), &lit.SessionRequest{
		SessionKey: sessionKey,
		AuthSig:    s.masterAuthSig(),
		Expiration: time.Now(),
	})
	require.ErrorIs(err, types.ErrNetwork)
}

func (s *LitTestSuite) TestSignWithSession() {
	require := s.Require()

	// the fake node signs with a real key so the signature verifies
	nodeKey, err := crypto.GenerateKey()
	require.NoError(err)
	nodeAddr := types.Address(crypto.PubkeyToAddress(nodeKey.PublicKey).Hex())

	node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal("/web/pkp_sign", r.URL.Path)
		var body map[string]any
		require.NoError(json.NewDecoder(r.Body).Decode(&body))
		digest, err := hexutil.Decode(body["toSign"].(string))
		require.NoError(err)
		sig, err := crypto.Sign(digest, nodeKey)
		require.NoError(err)
		json.NewEncoder(w).Encode(map[string]string{"signature": hexutil.Encode(sig)})
	}))
	defer node.Close()

	client, err := lit.NewClient(lit.NetworkDatilDev, "", lit.WithNodeURL(node.URL))
	require.NoError(err)

	msg := []byte("hello pkp")
	sig, err := client.SignWithSession(context.Background(), &lit.SignRequest{
		PKPPublicKey: "0x04aa",
		Digest:       evm.MessageDigest(msg),
		Kind:         types.SignMessage,
		SessionSigs:  lit.SessionSigs{"node1": auth.AuthSig{Sig: "0x01"}},
	})
	require.NoError(err)
	require.True(evm.VerifyMessage(msg, sig, nodeAddr))
}

func (s *LitTestSuite) TestSignWithSessionValidation() {
	require := s.Require()

	client, err := lit.NewClient(lit.NetworkDatilDev, "")
	require.NoError(err)

	// short digest rejected before any network call
	_, err = client.SignWithSession(context.Background(), &lit.SignRequest{
		Digest:      []byte{1, 2, 3},
		SessionSigs: lit.SessionSigs{"node1": auth.AuthSig{}},
	})
	require.Error(err)

	_, err = client.SignWithSession(context.Background(), &lit.SignRequest{
		Digest: make([]byte, 32),
	})
	require.Error(err)
}
