package observability

// Config конфигурация OpenTelemetry (traces + metrics + propagator)
type Config struct {
	// Enabled включает экспорт в OTLP collector; иначе ставятся noop providers
	Enabled bool
	// OTLPEndpoint адрес OTLP gRPC, например "127.0.0.1:4317" или "otel-collector:4317"
	OTLPEndpoint string
	// SamplingRatio доля трасс (0..1)
	SamplingRatio float64
	ServiceName   string
	// DeploymentEnvironment окружение (local, docker)
	DeploymentEnvironment string
	ServiceVersion        string
}
