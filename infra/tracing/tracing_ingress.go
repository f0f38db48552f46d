package tracing

import (
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

// TracingIngress opens a server span per request and puts it on the
// request context, so persistence, search and storage calls join it as
// children. Span names use the route pattern, keeping dossier and step
// ids out of the operation cardinality.
func TracingIngress() gin.HandlerFunc {
	return func(c *gin.Context) {
		tracer := opentracing.GlobalTracer()
		parentCtx, _ := tracer.Extract(opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(c.Request.Header))

		operation := c.Request.Method + " " + c.FullPath()
		if c.FullPath() == "" {
			operation = c.Request.Method + " " + c.Request.URL.Path
		}
		serverSpan := tracer.StartSpan(operation, ext.RPCServerOption(parentCtx))
		defer serverSpan.Finish()

		ext.HTTPMethod.Set(serverSpan, c.Request.Method)
		ext.HTTPUrl.Set(serverSpan, c.Request.URL.String())

		c.Request = c.Request.WithContext(opentracing.ContextWithSpan(c.Request.Context(), serverSpan))
		c.Next()

		ext.HTTPStatusCode.Set(serverSpan, uint16(c.Writer.Status()))
		ext.Error.Set(serverSpan, c.Writer.Status() >= 500)
	}
}
