package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OS2mo/os2mo-sub000/modules/lora/services"
)

type validateRangeOptions struct {
	scope string
	id    string
	from  string
	to    string
	field string
}

func newValidateRangeCmd() *cobra.Command {
	var opts validateRangeOptions

	cmd := &cobra.Command{
		Use:   "validate-range",
		Short: "Check that an object is active throughout [from, to)",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUUIDFlag(opts.id)
			if err != nil {
				return err
			}
			from, err := parseTimeFlag("from", opts.from)
			if err != nil {
				return err
			}
			to, err := parseTimeFlag("to", opts.to)
			if err != nil {
				return err
			}
			if opts.field == "" {
				return withCode(exitUsage, fmt.Errorf("--field is required"))
			}

			ctx, c, done, err := newConnector(cmd.Context(), &connectorOptions{})
			if err != nil {
				return err
			}
			defer done()
			err = services.RequireDateRangeValid(ctx, id, from, to, c.Scope(opts.scope), opts.field)
			if err != nil && !services.HasCode(err, services.CodeDateOutsideRange) {
				return loraError(err)
			}

			type result struct {
				Valid bool   `json:"valid"`
				Scope string `json:"scope"`
				UUID  string `json:"uuid"`
				From  string `json:"from"`
				To    string `json:"to"`
				Field string `json:"field"`
			}
			if werr := writeJSONLines(cmd.OutOrStdout(), result{
				Valid: err == nil,
				Scope: opts.scope,
				UUID:  id.String(),
				From:  from.String(),
				To:    to.String(),
				Field: opts.field,
			}); werr != nil {
				return werr
			}
			return loraError(err)
		},
	}

	cmd.Flags().StringVar(&opts.scope, "scope", "organisation/organisationenhed", "LoRa object type")
	cmd.Flags().StringVar(&opts.id, "uuid", "", "object uuid")
	cmd.Flags().StringVar(&opts.from, "from", "", "range start")
	cmd.Flags().StringVar(&opts.to, "to", "infinity", "range end")
	cmd.Flags().StringVar(&opts.field, "field", "organisationenhedgyldighed", "state field holding Aktiv/Inaktiv")
	_ = cmd.MarkFlagRequired("uuid")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}
