package tracing

import (
	"io"

	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	"github.com/uber/jaeger-lib/metrics"
)

// Bootstrap builds the jaeger tracer from JAEGER_* environment variables
// and installs it as the opentracing global tracer.
func Bootstrap(serviceName string) io.Closer {
	cfg, err := jaegercfg.FromEnv()
	if err != nil {
		logrus.Warnf("tracing disabled, bad jaeger config: %v", err)
		return nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = serviceName
	}

	tracer, closer, err := cfg.NewTracer(jaegercfg.Metrics(metrics.NullFactory))
	if err != nil {
		logrus.Warnf("tracing disabled, failed to build jaeger tracer: %v", err)
		return nil
	}
	opentracing.SetGlobalTracer(tracer)
	return closer
}
