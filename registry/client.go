package registry

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/progload/cidutil"
	"xdao.co/progload/program"
)

// Client talks to a registry over gRPC. It satisfies resolver.Remote.
type Client struct {
	cc      *grpc.ClientConn
	client  RegistryClient
	network program.Network

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

type DialOptions struct {
	// Network is sent with every request; empty means testnet.
	Network program.Network

	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int

	// ExtraDialOptions are appended after the defaults.
	ExtraDialOptions []grpc.DialOption
}

func Dial(target string, opts DialOptions) (*Client, error) {
	if target == "" {
		return nil, program.NewError(program.KindConfiguration, "registry_dial", "registry target is required")
	}
	network := opts.Network
	if network == "" {
		network = program.Testnet
	}
	if !network.Valid() {
		return nil, program.NewError(program.KindConfiguration, "registry_dial", fmt.Sprintf("unknown network %q", network))
	}
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}
	dialOpts = append(dialOpts, opts.ExtraDialOptions...)

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return NewClient(cc, network), nil
}

// NewClient wraps an established connection.
func NewClient(cc *grpc.ClientConn, network program.Network) *Client {
	if network == "" {
		network = program.Testnet
	}
	return &Client{cc: cc, client: NewRegistryClient(cc), network: network}
}

func (c *Client) Network() program.Network { return c.network }

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

// Program fetches the source of id and checks it against the content id
// the server attached to the response.
func (c *Client) Program(id program.ID) ([]byte, error) {
	const op = "registry_get_program"
	if id.Network != c.network {
		return nil, program.NewError(program.KindConfiguration, op,
			fmt.Sprintf("program %s is on %s, registry client is on %s", id, id.Network, c.network))
	}
	ctx, cancel := c.ctx()
	defer cancel()

	var header metadata.MD
	reply, err := c.client.GetProgram(ctx, wrapperspb.String(id.String()), grpc.Header(&header))
	if err != nil {
		return nil, c.wrap(op, id.String(), mapRPC(err))
	}
	b := reply.GetValue()
	want := header.Get(ContentIDHeader)
	if len(want) == 0 {
		return nil, fmt.Errorf("%w: response for %s has no %s header", ErrCIDMismatch, id, ContentIDHeader)
	}
	if err := cidutil.Verify(b, want[0]); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCIDMismatch, id, err)
	}
	return b, nil
}

func (c *Client) Records() ([]string, error) {
	ctx, cancel := c.ctx()
	defer cancel()
	reply, err := c.client.ListRecords(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, c.wrap("registry_list_records", "records", mapRPC(err))
	}
	return stringValues(reply)
}

func (c *Client) UnspentRecords() ([]string, error) {
	ctx, cancel := c.ctx()
	defer cancel()
	reply, err := c.client.ListUnspentRecords(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, c.wrap("registry_list_unspent_records", "unspent records", mapRPC(err))
	}
	return stringValues(reply)
}

func (c *Client) wrap(op, what string, err error) error {
	switch err {
	case ErrNotFound:
		return program.WrapError(program.KindNotFound, op, what+" not found in registry", err)
	case ErrNetworkMismatch:
		return program.WrapError(program.KindConfiguration, op, "registry does not serve "+string(c.network), err)
	case ErrInvalidID:
		return program.WrapError(program.KindParse, op, "registry rejected "+what, err)
	default:
		return err
	}
}

func stringValues(l *structpb.ListValue) ([]string, error) {
	out := make([]string, 0, len(l.GetValues()))
	for i, v := range l.GetValues() {
		s, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("registry: list element %d is not a string", i)
		}
		out = append(out, s.StringValue)
	}
	return out, nil
}

func (c *Client) ctx() (context.Context, context.CancelFunc) {
	ctx := metadata.AppendToOutgoingContext(context.Background(), NetworkHeader, string(c.network))
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}
