package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OS2mo/os2mo-sub000/modules/lora/services"
)

type effectsOptions struct {
	connectorOptions
	scope    string
	id       string
	relevant []string
	also     []string
}

func newEffectsCmd() *cobra.Command {
	var opts effectsOptions

	cmd := &cobra.Command{
		Use:   "effects",
		Short: "Print the time slices of one object, one JSON line per slice",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUUIDFlag(opts.id)
			if err != nil {
				return err
			}
			relevant, err := selection(opts.relevant)
			if err != nil {
				return err
			}
			if len(relevant) == 0 {
				return withCode(exitUsage, fmt.Errorf("at least one --field is required"))
			}
			also, err := selection(opts.also)
			if err != nil {
				return err
			}

			ctx, c, done, err := newConnector(cmd.Context(), &opts.connectorOptions)
			if err != nil {
				return err
			}
			defer done()
			reg, err := c.Scope(opts.scope).Get(ctx, id)
			if err != nil {
				return loraError(err)
			}
			if reg == nil {
				return withCode(exitLora, fmt.Errorf("%s %s not found", opts.scope, id))
			}
			return writeJSONLines(cmd.OutOrStdout(), c.GetEffects(reg, relevant, also)...)
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVar(&opts.scope, "scope", "organisation/organisationenhed", "LoRa object type")
	cmd.Flags().StringVar(&opts.id, "uuid", "", "object uuid")
	cmd.Flags().StringSliceVar(&opts.relevant, "field", nil, "field that cuts slices, <group>/<field> (repeatable)")
	cmd.Flags().StringSliceVar(&opts.also, "also", nil, "field included in slices without cutting them (repeatable)")
	_ = cmd.MarkFlagRequired("uuid")
	return cmd
}

func selection(paths []string) (services.FieldSelection, error) {
	out := services.FieldSelection{}
	for _, p := range paths {
		path, err := parseFieldPath(p)
		if err != nil {
			return nil, withCode(exitUsage, err)
		}
		out[path.Group] = append(out[path.Group], path.Name)
	}
	return out, nil
}
