package lit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/openweb3-io/pkpkit/auth"
	"github.com/openweb3-io/pkpkit/types"
)

// authMethodEthWallet is the auth method type for a wallet signature.
const authMethodEthWallet = 1

// keyTypeEcdsa requests a secp256k1 key from the network.
const keyTypeEcdsa = 2

// MintRequest asks the relay for a new PKP. The master credential's
// AuthSig is the sole authorizer; the network registers it as the key's
// permitted auth method.
type MintRequest struct {
	AuthSig *auth.AuthSig
}

type mintBody struct {
	KeyType        int    `json:"keyType"`
	AuthMethodType int    `json:"authMethodType"`
	AccessToken    string `json:"accessToken"`
}

type mintResponse struct {
	RequestID string `json:"requestId"`
}

type mintStatus struct {
	Status        string `json:"status"`
	PKPTokenID    string `json:"pkpTokenId"`
	PKPPublicKey  string `json:"pkpPublicKey"`
	PKPEthAddress string `json:"pkpEthAddress"`
	Error         string `json:"error,omitempty"`
}

// MintPKP submits a minting request through the relay and polls it to
// completion. The call blocks until the network reports a terminal status
// or ctx is done.
func (c *Client) MintPKP(ctx context.Context, req *MintRequest) (*types.PKP, error) {
	if req.AuthSig == nil {
		return nil, errors.New("auth sig is required")
	}
	accessToken, err := json.Marshal(req.AuthSig)
	if err != nil {
		return nil, errors.Wrap(err, "error encoding auth sig")
	}

	var minted mintResponse
	err = c.do(ctx, "POST", c.cfg.RelayURL+"/mint-next-and-add-auth-methods", &mintBody{
		KeyType:        keyTypeEcdsa,
		AuthMethodType: authMethodEthWallet,
		AccessToken:    string(accessToken),
	}, &minted)
	if err != nil {
		return nil, err
	}
	c.log.Infow("mint request accepted", "mintRequestId", minted.RequestID)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, types.WrapErrDetails(types.ErrNetwork, ctx.Err(), map[string]any{
				"mintRequestId": minted.RequestID,
			})
		case <-ticker.C:
		}

		var status mintStatus
		if err := c.do(ctx, "GET", c.cfg.RelayURL+"/auth/status/"+minted.RequestID, nil, &status); err != nil {
			return nil, err
		}

		switch status.Status {
		case "InProgress":
			continue
		case "Succeeded":
			return pkpFromStatus(&status)
		default:
			return nil, types.WrapErrDetails(types.ErrNetwork,
				errors.Errorf("mint failed with status %s: %s", status.Status, status.Error),
				map[string]any{"mintRequestId": minted.RequestID})
		}
	}
}

// pkpFromStatus normalizes a terminal mint status into a PKP record,
// deriving the address and token id locally when the relay omits them.
func pkpFromStatus(status *mintStatus) (*types.PKP, error) {
	if status.PKPPublicKey == "" {
		return nil, errors.New("mint succeeded but no public key reported")
	}

	address := types.Address(status.PKPEthAddress)
	if address == "" {
		derived, err := types.DeriveAddress(status.PKPPublicKey)
		if err != nil {
			return nil, err
		}
		address = derived
	}

	tokenID := types.TokenID(status.PKPTokenID)
	if tokenID == "" {
		derived, err := types.DeriveTokenID(status.PKPPublicKey)
		if err != nil {
			return nil, err
		}
		tokenID = derived
	}

	return &types.PKP{
		TokenID:   tokenID,
		PublicKey: status.PKPPublicKey,
		Address:   address,
	}, nil
}
