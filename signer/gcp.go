package signer

import (
	"context"
	"crypto/ecdsa"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// NewGCPSecretLoader reads the master credential from GCP Secret Manager.
// The reference is the full version name,
// projects/<p>/secrets/<s>/versions/<v>.
func NewGCPSecretLoader(opts ...option.ClientOption) CredentialLoader {
	return func(ctx context.Context, ref string) (*ecdsa.PrivateKey, error) {
		client, err := secretmanager.NewClient(ctx, opts...)
		if err != nil {
			return nil, errors.Wrap(err, "error creating secretmanager client")
		}
		defer client.Close()

		resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
			Name: ref,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "error accessing secret %s", ref)
		}
		return ParseKey(string(resp.GetPayload().GetData()))
	}
}
