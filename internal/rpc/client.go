package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/tolstack/internal/document"
	"github.com/danielpatrickdp/tolstack/internal/domainerr"
)

// #region client
// Client wraps a gRPC connection to the Analysis service.
type Client struct {
	conn *grpc.ClientConn
}

// NewClient connects to the Analysis service at addr without TLS.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// #endregion client

// #region calls
// Analyze sends a document to the method matching its kind and returns the
// report.
func (c *Client) Analyze(ctx context.Context, doc *document.Document) (map[string]any, error) {
	method, err := methodFor(doc.Kind)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return c.call(ctx, method, m)
}

// GetRun fetches a recorded run.
func (c *Client) GetRun(ctx context.Context, runID string) (map[string]any, error) {
	return c.call(ctx, MethodGetRun, map[string]any{"run_id": runID})
}

func (c *Client) call(ctx context.Context, method string, in map[string]any) (map[string]any, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, FullMethod(method), req, resp); err != nil {
		return nil, fmt.Errorf("%s rpc: %w", method, err)
	}
	return resp.AsMap(), nil
}

func methodFor(kind document.Kind) (string, error) {
	switch kind {
	case document.KindStackup:
		return MethodAnalyzeStackup, nil
	case document.KindMate:
		return MethodAnalyzeMate, nil
	case document.KindBounds:
		return MethodComputeBounds, nil
	case document.KindChain:
		return MethodAnalyzeChain, nil
	}
	return "", domainerr.WithMetadata(domainerr.CodeUnknownKind,
		fmt.Sprintf("unknown document kind %q", kind), map[string]string{"field": "kind"})
}

// #endregion calls
