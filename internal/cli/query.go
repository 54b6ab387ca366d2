package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/signedstore/internal/mutation"
	"github.com/roach88/signedstore/internal/record"
)

// queryFlags are shared by get and list.
type queryFlags struct {
	wallet string
	by     string
	params map[string]string
	page   int
	size   int
	sort   string
	order  string
}

func (f *queryFlags) register(cmd *cobra.Command, list bool) {
	cmd.Flags().StringVarP(&f.wallet, "wallet", "w", "", "owner wallet (ignored by global finders)")
	cmd.Flags().StringVar(&f.by, "by", "", "finder name (see kinds)")
	cmd.Flags().StringToStringVar(&f.params, "param", nil, "finder parameter as key=value (repeatable)")
	if list {
		cmd.Flags().IntVar(&f.page, "page", record.DefaultPageNo, "1-based page number")
		cmd.Flags().IntVar(&f.size, "size", 0, "page size (default from config)")
		cmd.Flags().StringVar(&f.sort, "sort", string(record.SortCreatedAt), "sort field (createdAt|updatedAt)")
		cmd.Flags().StringVar(&f.order, "order", string(record.Descending), "sort order (desc|asc)")
	}
	_ = cmd.MarkFlagRequired("by")
}

func (f *queryFlags) query() mutation.Query {
	return mutation.Query{
		By:     f.by,
		Params: f.params,
		Options: record.ListOptions{
			PageNo:   f.page,
			PageSize: f.size,
			Sort:     record.SortField(f.sort),
			Order:    record.SortOrder(f.order),
		},
	}
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "get <kind>",
		Short: "Fetch the newest alive record matched by a finder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, flags, false, args[0], cmd)
		},
	}
	flags.register(cmd, false)
	return cmd
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "List one page of alive records matched by a finder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, flags, true, args[0], cmd)
		},
	}
	flags.register(cmd, true)
	return cmd
}

func runQuery(opts *RootOptions, flags *queryFlags, list bool, kind string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	e, err := openEnv(opts)
	if err != nil {
		return formatter.Fail(err)
	}
	defer e.Close()

	h, err := e.handler(kind)
	if err != nil {
		return formatter.Fail(err)
	}

	var out any
	if list {
		out, err = h.QueryList(cmd.Context(), flags.wallet, flags.query())
	} else {
		out, err = h.QueryOne(cmd.Context(), flags.wallet, flags.query())
	}
	if err != nil {
		return formatter.Fail(err)
	}
	return formatter.Success(out)
}
