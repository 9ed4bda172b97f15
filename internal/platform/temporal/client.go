// Package temporal dials Temporal with the process-wide tracing and logging wired in.
package temporal

import (
	"log/slog"
	"os"
	"strings"

	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	platformobservability "github.com/Apurer/cafe-pos-server/internal/platform/observability"
)

// Options selects the Temporal frontend.
type Options struct {
	Address   string
	Namespace string
	// TracerName names the tracer used by the client interceptor.
	TracerName string
}

// Dial connects a Temporal client using OpenTelemetry tracing and the structured logger.
func Dial(instruments *platformobservability.Instruments, opts Options) (client.Client, error) {
	address := strings.TrimSpace(opts.Address)
	if address == "" {
		address = client.DefaultHostPort
	}
	namespace := strings.TrimSpace(opts.Namespace)
	if namespace == "" {
		namespace = client.DefaultNamespace
	}
	tracerName := opts.TracerName
	if tracerName == "" {
		tracerName = "temporal-client"
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer(tracerName)
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  address,
		Namespace: namespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
