package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/tolstack/internal/document"
	"github.com/danielpatrickdp/tolstack/internal/domainerr"
	"github.com/danielpatrickdp/tolstack/internal/runlog"
	"github.com/danielpatrickdp/tolstack/internal/runner"
)

// #region server
// Server implements AnalysisServer on top of the runner. Runs are recorded
// when a store is configured.
type Server struct {
	opts  runner.Options
	store *runlog.Store
}

// NewServer creates a server. store may be nil.
func NewServer(opts runner.Options, store *runlog.Store) *Server {
	return &Server{opts: opts, store: store}
}

// AnalyzeStackup runs a stackup document.
func (s *Server) AnalyzeStackup(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.analyze(ctx, document.KindStackup, in)
}

// AnalyzeMate runs a mate document.
func (s *Server) AnalyzeMate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.analyze(ctx, document.KindMate, in)
}

// ComputeBounds runs a bounds document.
func (s *Server) ComputeBounds(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.analyze(ctx, document.KindBounds, in)
}

// AnalyzeChain runs a chain document.
func (s *Server) AnalyzeChain(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.analyze(ctx, document.KindChain, in)
}

func (s *Server) analyze(ctx context.Context, kind document.Kind, in *structpb.Struct) (*structpb.Struct, error) {
	doc, err := decodeStruct(kind, in)
	if err != nil {
		return nil, domainerr.ToStatus(err)
	}
	out, err := runner.Analyze(ctx, doc, s.opts)
	if err != nil {
		return nil, domainerr.ToStatus(err)
	}

	resp := make(map[string]any, len(out.Report)+1)
	for k, v := range out.Report {
		resp[k] = v
	}
	if s.store != nil {
		rec, err := runner.Record(s.store, doc, out)
		if err != nil {
			return nil, domainerr.ToStatus(domainerr.Wrap(domainerr.CodeInternal, "record run", err))
		}
		resp["run_id"] = rec.RunID
	}
	return toStruct(resp)
}

// GetRun returns a recorded run by {"run_id": ...}.
func (s *Server) GetRun(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s.store == nil {
		return nil, domainerr.ToStatus(domainerr.New(domainerr.CodeNotFound, "run log is not enabled"))
	}
	id := in.GetFields()["run_id"].GetStringValue()
	if id == "" {
		return nil, domainerr.ToStatus(domainerr.WithMetadata(domainerr.CodeInvalidInput,
			"run_id is required", map[string]string{"field": "run_id"}))
	}
	rec, err := s.store.GetRun(id)
	if err != nil {
		return nil, domainerr.ToStatus(err)
	}
	warnings, err := s.store.Warnings(id)
	if err != nil {
		return nil, domainerr.ToStatus(domainerr.Wrap(domainerr.CodeInternal, "load warnings", err))
	}
	m, err := RunMap(rec, warnings)
	if err != nil {
		return nil, domainerr.ToStatus(domainerr.Wrap(domainerr.CodeInternal, "render run", err))
	}
	return toStruct(m)
}

// #endregion server

// #region conversion
// decodeStruct turns a request struct into a document of the given kind.
// A missing kind is filled in; a different one is rejected.
func decodeStruct(kind document.Kind, in *structpb.Struct) (*document.Document, error) {
	m := in.AsMap()
	if k, ok := m["kind"].(string); ok && k != "" && !strings.EqualFold(k, string(kind)) {
		return nil, domainerr.WithMetadata(domainerr.CodeInvalidInput,
			fmt.Sprintf("document kind %q does not match %s", k, kind), map[string]string{"field": "kind"})
	}
	m["kind"] = string(kind)
	data, err := json.Marshal(m)
	if err != nil {
		return nil, domainerr.Wrap(domainerr.CodeInvalidInput, "encode request", err)
	}
	return document.Decode(data)
}

// RunMap renders a recorded run with its report decoded.
func RunMap(rec runlog.Run, warnings []runlog.Warning) (map[string]any, error) {
	var rep any
	if rec.ReportJSON != "" {
		if err := json.Unmarshal([]byte(rec.ReportJSON), &rep); err != nil {
			return nil, fmt.Errorf("unmarshal report: %w", err)
		}
	}
	ws := make([]any, len(warnings))
	for i, w := range warnings {
		ws[i] = w.Message
	}
	return map[string]any{
		"run_id":      rec.RunID,
		"parent_id":   rec.ParentID,
		"kind":        rec.Kind,
		"name":        rec.Name,
		"seed":        strconv.FormatUint(rec.Seed, 10),
		"disposition": rec.Disposition,
		"created_at":  rec.CreatedAt.Format(time.RFC3339Nano),
		"report":      rep,
		"warnings":    ws,
	}, nil
}

func toStruct(m map[string]any) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, domainerr.ToStatus(domainerr.Wrap(domainerr.CodeInternal, "encode response", err))
	}
	return st, nil
}

// #endregion conversion
