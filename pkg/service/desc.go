package service

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "mtbridge.v1.MachineTranslation"

const (
	translateMethod          = "/" + ServiceName + "/Translate"
	supportedLanguagesMethod = "/" + ServiceName + "/SupportedLanguages"
)

// MachineTranslationServer is the server API of the MachineTranslation service.
// Messages are google.protobuf.Struct values; see NewTranslateRequest for the field names.
type MachineTranslationServer interface {
	Translate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SupportedLanguages(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// MachineTranslationServiceDesc describes the service for grpc.ServiceRegistrar.
var MachineTranslationServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MachineTranslationServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Translate",
			Handler:    translateHandler,
		},
		{
			MethodName: "SupportedLanguages",
			Handler:    supportedLanguagesHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mtbridge/v1/machine_translation.proto",
}

// RegisterMachineTranslationServer registers srv with s.
func RegisterMachineTranslationServer(s grpc.ServiceRegistrar, srv MachineTranslationServer) {
	s.RegisterService(&MachineTranslationServiceDesc, srv)
}

func translateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MachineTranslationServer).Translate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: translateMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MachineTranslationServer).Translate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func supportedLanguagesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MachineTranslationServer).SupportedLanguages(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: supportedLanguagesMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MachineTranslationServer).SupportedLanguages(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
