package cli

import (
	"github.com/spf13/cobra"
)

// NewStatCommand creates the stat command.
func NewStatCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		actor    string
		hash     string
		counter  string
		decrease bool
	)
	cmd := &cobra.Command{
		Use:   "stat <kind>",
		Short: "Increase or decrease a record counter",
		Long: `Adjust a statistic counter of the alive record holding --hash by one.

Counters never drop below zero. Any valid wallet may adjust any record; the
record's updatedAt is left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			e, err := openEnv(rootOpts)
			if err != nil {
				return formatter.Fail(err)
			}
			defer e.Close()

			h, err := e.handler(args[0])
			if err != nil {
				return formatter.Fail(err)
			}
			delta := 1
			if decrease {
				delta = -1
			}
			formatter.VerboseLog("%s %s by %d", args[0], counter, delta)

			out, err := h.Adjust(cmd.Context(), actor, hash, counter, delta)
			if err != nil {
				return formatter.Fail(err)
			}
			return formatter.Success(out)
		},
	}

	cmd.Flags().StringVarP(&actor, "wallet", "w", "", "acting wallet address")
	cmd.Flags().StringVar(&hash, "hash", "", "content hash of the target record")
	cmd.Flags().StringVar(&counter, "counter", "", "counter name, e.g. statisticView")
	cmd.Flags().BoolVar(&decrease, "decrease", false, "decrease instead of increase")
	_ = cmd.MarkFlagRequired("hash")
	_ = cmd.MarkFlagRequired("counter")
	return cmd
}
