package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/OS2mo/os2mo-sub000/modules/lora/domain/virkning"
	"github.com/OS2mo/os2mo-sub000/modules/lora/infrastructure/lora"
	"github.com/OS2mo/os2mo-sub000/modules/lora/services"
	"github.com/OS2mo/os2mo-sub000/pkg/composables"
	"github.com/OS2mo/os2mo-sub000/pkg/configuration"
	"github.com/OS2mo/os2mo-sub000/pkg/tracing"
)

type connectorOptions struct {
	validity string
	from     string
	to       string
}

func (o *connectorOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.validity, "validity", "", "present|past|future|custom (default: DEFAULT_VALIDITY)")
	cmd.Flags().StringVar(&o.from, "from", "", "window start for --validity custom")
	cmd.Flags().StringVar(&o.to, "to", "", "window end for --validity custom")
}

func (o *connectorOptions) window(conf *configuration.Configuration, now time.Time) (services.ValidityWindow, error) {
	validity := o.validity
	if validity == "" {
		validity = conf.DefaultValidity
	}
	mode, err := services.ParseValidityMode(validity)
	if err != nil {
		return services.ValidityWindow{}, withCode(exitUsage, err)
	}
	var from, to virkning.TimePoint
	if mode == services.ValidityCustom {
		if from, err = parseTimeFlag("from", o.from); err != nil {
			return services.ValidityWindow{}, err
		}
		if to, err = parseTimeFlag("to", o.to); err != nil {
			return services.ValidityWindow{}, err
		}
	}
	w, err := services.NewValidityWindow(mode, now, from, to)
	if err != nil {
		return services.ValidityWindow{}, withCode(exitUsage, err)
	}
	return w, nil
}

// newConnector builds a Connector from the environment and a context
// carrying the configured logger and a fresh request id. The returned func
// flushes pending spans and must be called once the command is done.
func newConnector(ctx context.Context, opts *connectorOptions) (context.Context, *lora.Connector, func(), error) {
	conf := configuration.Use()
	window, err := opts.window(conf, time.Now())
	if err != nil {
		return nil, nil, nil, err
	}
	client, err := lora.NewClientFromConfig(conf)
	if err != nil {
		return nil, nil, nil, withCode(exitUsage, err)
	}
	shutdown, err := tracing.Setup(ctx, conf.OpenTelemetry)
	if err != nil {
		return nil, nil, nil, withCode(exitUsage, err)
	}
	requestID := uuid.NewString()
	logger := conf.Logger().WithField("request-id", requestID)
	ctx = composables.WithRequestID(ctx, requestID)
	ctx = composables.WithLogger(ctx, logger)

	done := func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			logger.WithError(err).Warn("tracing shutdown failed")
		}
		conf.Unload()
	}
	c := lora.NewConnector(client, window, lora.OptionsFromConfig(conf.Lora))
	return lora.WithConnector(ctx, c), c, done, nil
}

func parseUUIDFlag(v string) (uuid.UUID, error) {
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, withCode(exitUsage, err)
	}
	return id, nil
}
