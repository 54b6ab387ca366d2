package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/signedstore/internal/mutation"
	"github.com/roach88/signedstore/internal/record"
	"github.com/roach88/signedstore/internal/schema"
	"github.com/roach88/signedstore/internal/signature"
)

// SignResult is the sign command output.
type SignResult struct {
	Wallet string `json:"wallet"`
	Sig    string `json:"sig"`
	Hash   string `json:"hash,omitempty"`
}

func (r SignResult) String() string {
	out := fmt.Sprintf("wallet %s\nsig    %s", r.Wallet, r.Sig)
	if r.Hash != "" {
		out += fmt.Sprintf("\nhash   %s", r.Hash)
	}
	return out
}

// NewSignCommand creates the sign command.
func NewSignCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		key     string
		payload string
		opName  string
	)
	cmd := &cobra.Command{
		Use:   "sign <kind>",
		Short: "Sign a payload the way a wallet would",
		Long: `Sign a payload with an EIP-191 personal signature over its canonical
form, using the kind's signature exclusions for --op. Update and delete
signatures of hash-keyed kinds cover the target hash. Prints the signer
address, the signature and, for create, the content hash it would store.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return formatter.Fail(err)
			}
			reg, err := loadRegistry(cfg)
			if err != nil {
				return formatter.Fail(err)
			}
			kind, err := reg.Kind(args[0])
			if err != nil {
				return formatter.Fail(err)
			}
			op, err := schema.ParseOp(opName)
			if err != nil {
				return formatter.Fail(err)
			}

			p, err := readPayload(payload, cmd.InOrStdin())
			if err != nil {
				return formatter.Fail(err)
			}
			res, err := sign(kind, op, key, p)
			if err != nil {
				return formatter.Fail(err)
			}
			return formatter.Success(res)
		},
	}

	cmd.Flags().StringVarP(&key, "key", "k", "", "hex private key")
	cmd.Flags().StringVarP(&payload, "payload", "p", "", "JSON payload, @file or - for stdin")
	cmd.Flags().StringVar(&opName, "op", "create", "operation to sign for (create|update|delete)")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func sign(kind *schema.Kind, op schema.Op, hexKey string, p record.Payload) (SignResult, error) {
	key, err := signature.ParsePrivateKey(hexKey)
	if err != nil {
		return SignResult{}, err
	}
	wallet := signature.AddressFromKey(key)

	if op == schema.OpDelete && !p.Has(record.FieldDeleted) {
		p[record.FieldDeleted] = string(record.DeleteRequestMarker)
	}
	sig, err := signature.Sign(key, p, kind.SignatureExclusionFor(op))
	if err != nil {
		return SignResult{}, err
	}
	res := SignResult{Wallet: wallet, Sig: sig}
	if op == schema.OpCreate {
		if res.Hash, err = mutation.ContentHash(kind, wallet, p); err != nil {
			return SignResult{}, err
		}
	}
	return res, nil
}
