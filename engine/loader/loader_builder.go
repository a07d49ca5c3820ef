package loader

// LoaderBuilderOption is a function that modifies the properties of a Loader.
type LoaderBuilderOption func(*loaderImpl)

// NewLoader creates a Loader with the specified options applied.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: the new loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loaderImpl{}
	for _, opt := range options {
		opt(l)
	}
	return l
}

// WithWorkers sets how many workers decode texture images in parallel.
// Zero or unset means one per CPU.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - LoaderBuilderOption: the option builder function
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loaderImpl) {
		if n < 0 {
			panic("loader: WithWorkers requires a non-negative count")
		}
		l.workers = n
	}
}
