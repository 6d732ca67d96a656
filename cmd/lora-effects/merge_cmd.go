package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/OS2mo/os2mo-sub000/modules/lora/domain/registration"
	"github.com/OS2mo/os2mo-sub000/modules/lora/services"
)

var validate = validator.New()

// mergeInput describes one edit: the stored registration, the new
// validity range and the values written over it.
type mergeInput struct {
	From       string         `yaml:"from" validate:"required"`
	To         string         `yaml:"to" validate:"required"`
	Note       string         `yaml:"note"`
	Original   map[string]any `yaml:"original" validate:"required"`
	Fields     []mergeField   `yaml:"fields" validate:"dive"`
	Inactivate *inactivation  `yaml:"inactivate"`
}

type mergeField struct {
	Path  string           `yaml:"path" validate:"required"`
	Kind  string           `yaml:"kind" validate:"required,oneof=zero-to-one zero-to-many adapted-zero-to-many"`
	Value []map[string]any `yaml:"value" validate:"required,min=1"`
}

// inactivation marks the parts of the old range the edit gives up.
type inactivation struct {
	OldFrom string `yaml:"old_from" validate:"required"`
	OldTo   string `yaml:"old_to" validate:"required"`
	Field   string `yaml:"field" validate:"required"`
}

func newMergeCmd() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Compute the registration payload for an edit described in a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(input) == "" {
				return withCode(exitUsage, fmt.Errorf("--input is required"))
			}
			var r io.Reader = cmd.InOrStdin()
			if input != "-" {
				f, err := os.Open(input)
				if err != nil {
					return withCode(exitUsage, err)
				}
				defer func() { _ = f.Close() }()
				r = f
			}
			return runMerge(r, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "YAML edit description, - for stdin")
	return cmd
}

func runMerge(r io.Reader, w io.Writer) error {
	var in mergeInput
	if err := yaml.NewDecoder(r).Decode(&in); err != nil {
		return withCode(exitUsage, fmt.Errorf("decode input: %w", err))
	}
	if err := validate.Struct(&in); err != nil {
		return withCode(exitValidation, err)
	}

	from, err := parseTimeFlag("from", in.From)
	if err != nil {
		return err
	}
	to, err := parseTimeFlag("to", in.To)
	if err != nil {
		return err
	}
	original, err := decodeRegistration(in.Original)
	if err != nil {
		return withCode(exitUsage, err)
	}

	specs := make([]services.FieldSpec, 0, len(in.Fields))
	for _, f := range in.Fields {
		path, err := parseFieldPath(f.Path)
		if err != nil {
			return withCode(exitUsage, err)
		}
		kind, err := services.ParseCardinality(f.Kind)
		if err != nil {
			return withCode(exitUsage, err)
		}
		specs = append(specs, services.FieldSpec{Path: path, Kind: kind, Value: services.Constant(f.Value...)})
	}

	payload := registration.New()
	payload.Note = in.Note
	payload, err = services.EnsureBounds(from, to, specs, original, payload)
	if err != nil {
		return loraError(err)
	}
	if in.Inactivate != nil {
		oldFrom, err := parseTimeFlag("old_from", in.Inactivate.OldFrom)
		if err != nil {
			return err
		}
		oldTo, err := parseTimeFlag("old_to", in.Inactivate.OldTo)
		if err != nil {
			return err
		}
		path := registration.Path(registration.States, in.Inactivate.Field)
		payload = services.InactivateOldInterval(oldFrom, oldTo, from, to, payload, path)
	}
	payload, err = services.UpdatePayload(from, to, specs, original, payload)
	if err != nil {
		return loraError(err)
	}
	return writeJSONLines(w, payload)
}

func decodeRegistration(doc map[string]any) (*registration.Registration, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode original: %w", err)
	}
	reg := registration.New()
	if err := json.Unmarshal(b, reg); err != nil {
		return nil, fmt.Errorf("decode original: %w", err)
	}
	return reg, nil
}
