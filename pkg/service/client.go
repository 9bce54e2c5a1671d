package service

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dasmlab/mtbridge/pkg/translate"
)

// Client calls the MachineTranslation service over a gRPC connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Translate requests the candidate translations of text.
func (c *Client) Translate(ctx context.Context, source, target, text string, opts ...grpc.CallOption) ([]translate.Candidate, error) {
	req, err := NewTranslateRequest(source, target, text)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, translateMethod, req, resp, opts...); err != nil {
		return nil, err
	}
	return DecodeCandidates(resp), nil
}

// SupportedLanguages requests the provider-native language codes.
func (c *Client) SupportedLanguages(ctx context.Context, opts ...grpc.CallOption) ([]string, error) {
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, supportedLanguagesMethod, &structpb.Struct{}, resp, opts...); err != nil {
		return nil, err
	}
	return DecodeLanguages(resp), nil
}
