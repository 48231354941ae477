package phase

// ConfigurationError reports an Estimate call whose inputs break the calling
// contract. It is returned before any circuit is built or executed.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return e.Msg
}

var (
	errBothInputs    = &ConfigurationError{Msg: "only one of `pe_circuit` and `unitary` may be passed"}
	errNeitherInputs = &ConfigurationError{Msg: "one of `pe_circuit` and `unitary` must be passed"}
)
