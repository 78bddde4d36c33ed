package deepseek

import "github.com/modelgate/modelgate/pkg/provider"

// buildChatRequest assembles the Chat Completions body from validated
// parameters. The upstream takes an open request schema, so undeclared
// caller keys are flattened into the top level of the object. Temperature
// and top_p are only emitted when validation set them; for the reasoner
// variant they stay absent.
func buildChatRequest(vp *provider.ValidatedParameters) map[string]any {
	body := make(map[string]any, len(vp.Extra)+6)
	for k, v := range vp.Extra {
		body[k] = v
	}
	body["model"] = vp.Model
	body["messages"] = vp.Messages
	body["max_tokens"] = vp.MaxTokens
	if vp.Temperature != nil {
		body["temperature"] = *vp.Temperature
	}
	if vp.TopP != nil {
		body["top_p"] = *vp.TopP
	}
	body["stream"] = vp.Stream
	return body
}
