package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/signedstore/internal/record"
	"github.com/roach88/signedstore/internal/schema"
	"github.com/roach88/signedstore/internal/signature"
)

// mutateFlags are shared by create, update and delete.
type mutateFlags struct {
	wallet  string
	payload string
	sig     string
	key     string
}

func (f *mutateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.wallet, "wallet", "w", "", "owner wallet address (defaults to the --key address)")
	cmd.Flags().StringVarP(&f.payload, "payload", "p", "", "JSON payload, @file or - for stdin")
	cmd.Flags().StringVarP(&f.sig, "sig", "s", "", "owner signature over the payload")
	cmd.Flags().StringVarP(&f.key, "key", "k", "", "hex private key to sign with when --sig is absent")
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &mutateFlags{}
	cmd := &cobra.Command{
		Use:   "create <kind>",
		Short: "Create a signed record",
		Long: `Create a record of the given kind from a wallet-signed payload.

The payload is verified against --wallet with --sig, or signed locally with
--key. Counters start at zero and the content hash is derived from the
payload.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMutate(rootOpts, flags, schema.OpCreate, args[0], cmd)
		},
	}
	flags.register(cmd)
	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &mutateFlags{}
	cmd := &cobra.Command{
		Use:   "update <kind>",
		Short: "Update the whitelisted fields of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMutate(rootOpts, flags, schema.OpUpdate, args[0], cmd)
		},
	}
	flags.register(cmd)
	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &mutateFlags{}
	cmd := &cobra.Command{
		Use:   "delete <kind>",
		Short: "Soft-delete a record",
		Long: `Soft-delete the record named by the payload's natural key.

The payload must carry "deleted": "000000010000000000000000". When signing
locally with --key the marker is added if missing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMutate(rootOpts, flags, schema.OpDelete, args[0], cmd)
		},
	}
	flags.register(cmd)
	return cmd
}

func runMutate(opts *RootOptions, flags *mutateFlags, op schema.Op, kind string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	p, err := readPayload(flags.payload, cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(err)
	}

	e, err := openEnv(opts)
	if err != nil {
		return formatter.Fail(err)
	}
	defer e.Close()

	h, err := e.handler(kind)
	if err != nil {
		return formatter.Fail(err)
	}

	wallet, sig, err := authorize(flags, op, h.Kind(), p)
	if err != nil {
		return formatter.Fail(err)
	}
	formatter.VerboseLog("%s %s as %s", op, kind, wallet)

	ctx := cmd.Context()
	var out any
	switch op {
	case schema.OpCreate:
		out, err = h.Create(ctx, wallet, p, sig)
	case schema.OpUpdate:
		out, err = h.Update(ctx, wallet, p, sig)
	case schema.OpDelete:
		var n int
		n, err = h.Delete(ctx, wallet, p, sig)
		out = map[string]int{"deleted": n}
	}
	if err != nil {
		return formatter.Fail(err)
	}
	return formatter.Success(out)
}

// authorize resolves the owner wallet and signature from the flags, signing
// p with --key when no signature was given.
func authorize(flags *mutateFlags, op schema.Op, kind *schema.Kind, p record.Payload) (string, string, error) {
	wallet, sig := flags.wallet, flags.sig
	if flags.key == "" {
		if wallet == "" || sig == "" {
			return "", "", fmt.Errorf("--wallet and --sig are required without --key")
		}
		return wallet, sig, nil
	}

	key, err := signature.ParsePrivateKey(flags.key)
	if err != nil {
		return "", "", err
	}
	address := signature.AddressFromKey(key)
	if wallet == "" {
		wallet = address
	} else if !strings.EqualFold(wallet, address) {
		return "", "", fmt.Errorf("--wallet %s does not match --key address %s", wallet, address)
	}
	if sig != "" {
		return wallet, sig, nil
	}

	if op == schema.OpDelete && !p.Has(record.FieldDeleted) {
		p[record.FieldDeleted] = string(record.DeleteRequestMarker)
	}
	sig, err = signature.Sign(key, p, kind.SignatureExclusionFor(op))
	if err != nil {
		return "", "", err
	}
	return wallet, sig, nil
}
