package registry

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/progload/cidutil"
	"xdao.co/progload/internal/testkit"
	"xdao.co/progload/program"
	"xdao.co/progload/record"
	"xdao.co/progload/resolver"
)

var _ resolver.Remote = (*Client)(nil)

func serve(t *testing.T, srv RegistryServer, network program.Network) *Client {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	s := grpc.NewServer()
	RegisterRegistryServer(s, srv)
	go func() {
		_ = s.Serve(lis)
	}()
	t.Cleanup(s.Stop)

	dialer := func(ctx context.Context, _ string) (net.Conn, error) { return lis.Dial() }
	cc, err := grpc.DialContext(
		context.Background(),
		"bufnet",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("DialContext: %v", err)
	}
	t.Cleanup(func() { _ = cc.Close() })

	c := NewClient(cc, network)
	c.Timeout = 2 * time.Second
	return c
}

func newDirStore(t *testing.T) *DirStore {
	t.Helper()
	store, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirStore: %v", err)
	}
	return store
}

func TestGRPCRegistry_DirStore_RoundTrip(t *testing.T) {
	store := newDirStore(t)
	token := testkit.MustParse(t, testkit.Source("token.aleo"))
	if _, err := store.PutProgram(token); err != nil {
		t.Fatalf("PutProgram: %v", err)
	}
	ct, _ := record.ParseCiphertext("record1abc")
	pt, _ := record.ParsePlaintext("{ owner: aleo1x.private, amount: 5u64.private }")
	if err := store.AddRecords(ct); err != nil {
		t.Fatalf("AddRecords: %v", err)
	}
	if err := store.AddUnspentRecords(pt); err != nil {
		t.Fatalf("AddUnspentRecords: %v", err)
	}

	client := serve(t, &Server{Store: store}, program.Testnet)

	got, err := client.Program(token.ID())
	if err != nil {
		t.Fatalf("Program: %v", err)
	}
	if string(got) != string(token.Source()) {
		t.Fatalf("source mismatch")
	}
	recs, err := client.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(recs) != 1 || recs[0] != ct.String() {
		t.Fatalf("unexpected records %v", recs)
	}
	unspent, err := client.UnspentRecords()
	if err != nil {
		t.Fatalf("UnspentRecords: %v", err)
	}
	if len(unspent) != 1 || unspent[0] != pt.String() {
		t.Fatalf("unexpected unspent records %v", unspent)
	}
}

func TestGRPCRegistry_EmptyRecords(t *testing.T) {
	client := serve(t, &Server{Store: newDirStore(t)}, program.Testnet)
	recs, err := client.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", recs)
	}
}

func TestGRPCRegistry_NotFound(t *testing.T) {
	client := serve(t, &Server{Store: newDirStore(t)}, program.Testnet)
	_, err := client.Program(program.MustParseID(program.Testnet, "ghost.aleo"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !program.IsKind(err, program.KindNotFound) {
		t.Fatalf("expected KindNotFound, got %v", err)
	}
}

func TestGRPCRegistry_StoreKindNotFound(t *testing.T) {
	client := serve(t, &Server{Store: testkit.NewMemRemote()}, program.Testnet)
	_, err := client.Program(program.MustParseID(program.Testnet, "ghost.aleo"))
	if !program.IsKind(err, program.KindNotFound) {
		t.Fatalf("expected KindNotFound, got %v", err)
	}
}

type tamperingServer struct {
	UnimplementedRegistryServer
	header string
}

func (s *tamperingServer) GetProgram(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if s.header != "" {
		_ = grpc.SetHeader(ctx, metadata.Pairs(ContentIDHeader, s.header))
	}
	return wrapperspb.Bytes(testkit.Source(in.GetValue())), nil
}

func TestGRPCRegistry_CIDMismatch(t *testing.T) {
	other := cidutil.ContentIDString([]byte("something else"))
	client := serve(t, &tamperingServer{header: other}, program.Testnet)
	_, err := client.Program(program.MustParseID(program.Testnet, "token.aleo"))
	if !errors.Is(err, ErrCIDMismatch) {
		t.Fatalf("expected ErrCIDMismatch, got %v", err)
	}
}

func TestGRPCRegistry_MissingCIDHeader(t *testing.T) {
	client := serve(t, &tamperingServer{}, program.Testnet)
	_, err := client.Program(program.MustParseID(program.Testnet, "token.aleo"))
	if !errors.Is(err, ErrCIDMismatch) {
		t.Fatalf("expected ErrCIDMismatch, got %v", err)
	}
}

func TestGRPCRegistry_NetworkMismatch(t *testing.T) {
	client := serve(t, &Server{Store: newDirStore(t), Network: program.Mainnet}, program.Testnet)
	_, err := client.Records()
	if !errors.Is(err, ErrNetworkMismatch) {
		t.Fatalf("expected ErrNetworkMismatch, got %v", err)
	}
	if !program.IsKind(err, program.KindConfiguration) {
		t.Fatalf("expected KindConfiguration, got %v", err)
	}
}

func TestClientRejectsForeignNetworkID(t *testing.T) {
	client := serve(t, &Server{Store: newDirStore(t)}, program.Testnet)
	_, err := client.Program(program.MustParseID(program.Mainnet, "token.aleo"))
	if !program.IsKind(err, program.KindConfiguration) {
		t.Fatalf("expected KindConfiguration, got %v", err)
	}
}

func TestDialRequiresTarget(t *testing.T) {
	if _, err := Dial("", DialOptions{}); !program.IsKind(err, program.KindConfiguration) {
		t.Fatalf("expected KindConfiguration, got %v", err)
	}
	if _, err := Dial("127.0.0.1:1", DialOptions{Network: "devnet"}); !program.IsKind(err, program.KindConfiguration) {
		t.Fatalf("expected KindConfiguration for unknown network, got %v", err)
	}
}

func TestNewDirStoreRejectsBadRoot(t *testing.T) {
	if _, err := NewDirStore(""); err == nil {
		t.Fatalf("expected error for empty root")
	}
	if _, err := NewDirStore(t.TempDir() + "/absent"); err == nil {
		t.Fatalf("expected error for missing root")
	}
}

func TestDirStoreRejectsMultilinePlaintext(t *testing.T) {
	store := newDirStore(t)
	pt, err := record.ParsePlaintext("{\n  owner: aleo1x.private\n}")
	if err != nil {
		t.Fatalf("ParsePlaintext: %v", err)
	}
	if err := store.AddUnspentRecords(pt); err == nil {
		t.Fatalf("expected error for multi-line record")
	}
}
