package server

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls a remote ChatService over Connect.
type Client struct {
	ask   *connect.Client[structpb.Struct, structpb.Struct]
	reset *connect.Client[structpb.Struct, structpb.Struct]
}

// NewClient creates a Client for the server at baseURL. A nil httpClient
// uses http.DefaultClient.
func NewClient(httpClient connect.HTTPClient, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		ask:   connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+AskProcedure),
		reset: connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+ResetProcedure),
	}
}

// Ask sends question within sessionID and returns the server's reply.
func (c *Client) Ask(ctx context.Context, question, sessionID string) (QueryResponse, error) {
	req, err := structpb.NewStruct(map[string]any{
		fieldQuestion:  question,
		fieldSessionID: sessionID,
	})
	if err != nil {
		return QueryResponse{}, err
	}

	res, err := c.ask.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return QueryResponse{}, err
	}
	return decodeQueryResponse(res.Msg), nil
}

// Reset clears sessionID on the server, or every session for "all".
func (c *Client) Reset(ctx context.Context, sessionID string) error {
	req, err := structpb.NewStruct(map[string]any{fieldSessionID: sessionID})
	if err != nil {
		return err
	}
	_, err = c.reset.CallUnary(ctx, connect.NewRequest(req))
	return err
}

func decodeQueryResponse(msg *structpb.Struct) QueryResponse {
	fields := msg.GetFields()
	out := QueryResponse{
		Answer:           fields[fieldAnswer].GetStringValue(),
		SessionID:        fields[fieldSessionID].GetStringValue(),
		SummaryType:      fields[fieldSummaryType].GetStringValue(),
		IsSummaryRequest: fields[fieldSummaryReq].GetBoolValue(),
		Sources:          []Source{},
	}
	for _, v := range fields[fieldSources].GetListValue().GetValues() {
		src := v.GetStructValue().GetFields()
		source := Source{Content: src[fieldSourceContent].GetStringValue()}
		if meta := src[fieldSourceMeta].GetStructValue().GetFields(); len(meta) > 0 {
			source.Metadata = make(map[string]string, len(meta))
			for k, mv := range meta {
				source.Metadata[k] = mv.GetStringValue()
			}
		}
		out.Sources = append(out.Sources, source)
	}
	return out
}
