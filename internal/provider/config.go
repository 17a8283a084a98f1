package provider

// Config identifies the active provider and its credentials. It is a closed
// tagged union: the sealed interface keeps the variant set
// compile-time-checked, and Configure switches over it exhaustively.
// Switching variants fully replaces the active adapter; no state leaks
// between providers.
type Config interface {
	providerConfig()
}

// DirectKey selects the direct Anthropic provider with a caller-supplied
// secret.
type DirectKey struct {
	SecretKey string
}

// Trial selects the free-trial provider. It carries no client secret; the
// server holds the real credential.
type Trial struct{}

// ProxiedWorker selects a third-party relay endpoint with an optional bearer
// credential. An empty EndpointURL falls back to the shared worker.
type ProxiedWorker struct {
	EndpointURL  string
	WorkerAPIKey string
}

func (DirectKey) providerConfig()     {}
func (Trial) providerConfig()         {}
func (ProxiedWorker) providerConfig() {}
