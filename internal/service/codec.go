package service

import (
	"context"
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// unaryFunc is the connect handler shape shared by every procedure.
type unaryFunc func(context.Context, *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error)

// unary adapts a typed method to a structpb handler. The request struct is
// decoded from the message's JSON form and the result encoded the same way.
func unary[Req, Res any](fn func(context.Context, *Req) (Res, error)) unaryFunc {
	return func(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
		var in Req
		if err := fromStruct(req.Msg, &in); err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		out, err := fn(ctx, &in)
		if err != nil {
			return nil, toConnectError(err)
		}
		msg, err := toStruct(out)
		if err != nil {
			return nil, connect.NewError(connect.CodeInternal, err)
		}
		return connect.NewResponse(msg), nil
	}
}

func fromStruct(msg *structpb.Struct, v any) error {
	if msg == nil {
		msg = &structpb.Struct{}
	}
	data, err := protojson.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	msg := &structpb.Struct{}
	if err := protojson.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("failed to convert response: %w", err)
	}
	return msg, nil
}
