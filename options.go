package crucible

// Option configures an Application at construction.
type Option func(*Application)

// CompileOption configures the Compile() operation.
type CompileOption func(*compileConfig)

// compileConfig holds configuration for the Compile() method.
type compileConfig struct {
	version    uint64
	extraPages uint32
}

// defaultCompileConfig returns the default compile configuration.
func defaultCompileConfig() *compileConfig {
	return &compileConfig{
		version:    DefaultProgramVersion,
		extraPages: MaxExtraProgramPages,
	}
}

// WithDescription sets the application description carried into the
// contract artifact.
func WithDescription(descr string) Option {
	return func(a *Application) {
		a.descr = descr
	}
}

// WithNetwork records a deployment of the application: the network's
// genesis hash and the application id it runs under there.
func WithNetwork(genesisHash string, appID uint64) Option {
	return func(a *Application) {
		a.networks[genesisHash] = appID
	}
}

// WithProgramVersion sets the AVM version the programs target.
// Default is DefaultProgramVersion.
func WithProgramVersion(version uint64) CompileOption {
	return func(c *compileConfig) {
		c.version = version
	}
}

// WithExtraPages caps the extra program pages the application may request,
// tightening the combined size allowance to (1+n) pages.
// Default is MaxExtraProgramPages.
func WithExtraPages(n uint32) CompileOption {
	return func(c *compileConfig) {
		c.extraPages = n
	}
}
