package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/signedstore/internal/schema"
)

// KindInfo describes one declared kind.
type KindInfo struct {
	Name       string   `json:"name"`
	Collection string   `json:"collection"`
	NaturalKey []string `json:"naturalKey"`
	Updatable  []string `json:"updatable"`
	Counters   []string `json:"counters"`
	Finders    []string `json:"finders"`
}

// KindList is the kinds command output.
type KindList []KindInfo

func (l KindList) String() string {
	var b strings.Builder
	for _, k := range l {
		fmt.Fprintf(&b, "%s\tcollection=%s\tkey=%s\tupdatable=%s\tcounters=%d\tfinders=%s\n",
			k.Name, k.Collection,
			strings.Join(k.NaturalKey, ","),
			orDash(k.Updatable),
			len(k.Counters),
			strings.Join(k.Finders, ","),
		)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func orDash(s []string) string {
	if len(s) == 0 {
		return "-"
	}
	return strings.Join(s, ",")
}

func describeKinds(reg *schema.Registry) KindList {
	var out KindList
	for _, name := range reg.Names() {
		k, err := reg.Kind(name)
		if err != nil {
			continue
		}
		out = append(out, KindInfo{
			Name:       k.Name,
			Collection: k.Collection,
			NaturalKey: k.NaturalKey,
			Updatable:  k.Updatable,
			Counters:   k.Counters,
			Finders:    k.FinderNames(),
		})
	}
	return out
}

// NewKindsCommand creates the kinds command.
func NewKindsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the declared entity kinds",
		Long: `List the entity kinds with their natural keys, update whitelists,
counters and finders. Kinds come from the embedded declarations or from
the config's kinds_file.`,
		Args: cobra.NoArgs,
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
			return formatter.Success(describeKinds(reg))
		},
	}
}
