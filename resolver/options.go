package resolver

import (
	"io"
	"log/slog"

	"xdao.co/progload/program"
)

// Option configures a strategy at construction time.
type Option func(*options)

type options struct {
	network program.Network
	logger  *slog.Logger
}

// WithNetwork selects the network programs are parsed for. Default: program.Testnet.
func WithNetwork(n program.Network) Option {
	return func(o *options) { o.network = n }
}

// WithLogger sets the logger used for fallback and diagnostic messages.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) (options, error) {
	o := options{network: program.Testnet}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if !o.network.Valid() {
		return o, program.NewError(program.KindConfiguration, "new_resolver", "unknown network "+string(o.network))
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o, nil
}
