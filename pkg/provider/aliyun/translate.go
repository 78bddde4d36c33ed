package aliyun

import "github.com/modelgate/modelgate/pkg/provider"

// buildGenerationRequest assembles the DashScope envelope from validated
// parameters. The conversation goes under input; a retained prompt is not
// part of the wire format.
func buildGenerationRequest(vp *provider.ValidatedParameters) *generationRequest {
	return &generationRequest{
		Model:      vp.Model,
		Input:      generationInput{Messages: vp.Messages},
		Parameters: wireParameters(vp),
	}
}

// wireParameters flattens the validated fields and the Extra passthrough
// keys into the parameters object.
func wireParameters(vp *provider.ValidatedParameters) map[string]any {
	params := make(map[string]any, len(vp.Extra)+6)
	for k, v := range vp.Extra {
		params[k] = v
	}
	params["max_tokens"] = vp.MaxTokens
	if vp.Temperature != nil {
		params["temperature"] = *vp.Temperature
	}
	if vp.TopP != nil {
		params["top_p"] = *vp.TopP
	}
	if vp.TopK != nil {
		params["top_k"] = *vp.TopK
	}
	if vp.Seed != nil {
		params["seed"] = *vp.Seed
	}
	params["stream"] = vp.Stream
	return params
}
