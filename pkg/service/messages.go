package service

import (
	"github.com/dasmlab/mtbridge/pkg/translate"
	"google.golang.org/protobuf/types/known/structpb"
)

// Message field names.
const (
	FieldSourceLang = "source_lang"
	FieldTargetLang = "target_lang"
	FieldText       = "text"
	FieldProvider   = "provider"
	FieldCandidates = "candidates"
	FieldLanguages  = "languages"
)

// NewTranslateRequest builds a Translate request message.
func NewTranslateRequest(source, target, text string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		FieldSourceLang: source,
		FieldTargetLang: target,
		FieldText:       text,
	})
}

func stringField(msg *structpb.Struct, name string) string {
	return msg.GetFields()[name].GetStringValue()
}

func newTranslateResponse(provider string, candidates []translate.Candidate) (*structpb.Struct, error) {
	list := make([]interface{}, 0, len(candidates))
	for _, c := range candidates {
		list = append(list, map[string]interface{}{
			"text":    c.Text,
			"quality": c.Quality,
			"service": c.Service,
			"source":  c.Source,
		})
	}
	return structpb.NewStruct(map[string]interface{}{
		FieldProvider:   provider,
		FieldCandidates: list,
	})
}

// DecodeCandidates reads the candidates of a Translate response.
func DecodeCandidates(resp *structpb.Struct) []translate.Candidate {
	values := resp.GetFields()[FieldCandidates].GetListValue().GetValues()
	candidates := make([]translate.Candidate, 0, len(values))
	for _, v := range values {
		fields := v.GetStructValue()
		candidates = append(candidates, translate.Candidate{
			Text:    stringField(fields, "text"),
			Quality: int(fields.GetFields()["quality"].GetNumberValue()),
			Service: stringField(fields, "service"),
			Source:  stringField(fields, "source"),
		})
	}
	return candidates
}

func newLanguagesResponse(provider string, codes []string) (*structpb.Struct, error) {
	list := make([]interface{}, 0, len(codes))
	for _, code := range codes {
		list = append(list, code)
	}
	return structpb.NewStruct(map[string]interface{}{
		FieldProvider:  provider,
		FieldLanguages: list,
	})
}

// DecodeLanguages reads the codes of a SupportedLanguages response.
func DecodeLanguages(resp *structpb.Struct) []string {
	values := resp.GetFields()[FieldLanguages].GetListValue().GetValues()
	codes := make([]string, 0, len(values))
	for _, v := range values {
		codes = append(codes, v.GetStringValue())
	}
	return codes
}
