package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/docchat/kernel"
	"github.com/tailored-agentic-units/docchat/retrieval"
	"github.com/tailored-agentic-units/docchat/session"
)

// Connect procedures. Requests and responses are google.protobuf.Struct
// messages carrying the same fields as the REST API.
const (
	ServiceName        = "docchat.v1.ChatService"
	AskProcedure       = "/" + ServiceName + "/Ask"
	ResetProcedure     = "/" + ServiceName + "/Reset"
	fieldQuestion      = "question"
	fieldSessionID     = "session_id"
	fieldAnswer        = "answer"
	fieldSummaryType   = "summary_type"
	fieldSummaryReq    = "is_summary_request"
	fieldSources       = "sources"
	fieldSourceContent = "content"
	fieldSourceMeta    = "metadata"
)

func (s *Server) rpcHandlers() map[string]http.Handler {
	return map[string]http.Handler{
		AskProcedure:   connect.NewUnaryHandler(AskProcedure, s.ask),
		ResetProcedure: connect.NewUnaryHandler(ResetProcedure, s.reset),
	}
}

func (s *Server) ask(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	question := stringField(req.Msg, fieldQuestion)
	if strings.TrimSpace(question) == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("question is required"))
	}
	sessionID := stringField(req.Msg, fieldSessionID)
	if sessionID == "" {
		sessionID = session.NewID()
	}

	final, err := s.answerer.Query(ctx, question, sessionID)
	if err != nil {
		return nil, connect.NewError(rpcCode(err), err)
	}

	msg, err := structpb.NewStruct(queryFields(final))
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

func (s *Server) reset(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	s.answerer.ResetMemory(ctx, stringField(req.Msg, fieldSessionID))
	return connect.NewResponse(&structpb.Struct{}), nil
}

func stringField(msg *structpb.Struct, name string) string {
	if msg == nil {
		return ""
	}
	return msg.GetFields()[name].GetStringValue()
}

func queryFields(final kernel.QueryState) map[string]any {
	sources := make([]any, len(final.Documents))
	for i, d := range final.Documents {
		meta := make(map[string]any, len(d.Metadata))
		for k, v := range d.Metadata {
			meta[k] = v
		}
		sources[i] = map[string]any{
			fieldSourceContent: d.Content,
			fieldSourceMeta:    meta,
		}
	}
	return map[string]any{
		fieldAnswer:      final.Answer,
		fieldSessionID:   final.SessionID,
		fieldSummaryType: string(final.SummaryType),
		fieldSummaryReq:  final.IsSummaryRequest,
		fieldSources:     sources,
	}
}

func rpcCode(err error) connect.Code {
	switch {
	case errors.Is(err, retrieval.ErrSearchFailed):
		return connect.CodeUnavailable
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	default:
		return connect.CodeInternal
	}
}
