package provider

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/modelgate/modelgate/pkg/api"
)

// RequestParameters is the caller-supplied open parameter map for one call.
// It supports arbitrary keys beyond the known core set; validation reads it
// and never mutates it.
type RequestParameters map[string]any

// ValidatedParameters is the output of provider-specific validation: the
// known fields the provider declares, clamped and coerced, plus an Extra
// map carrying every other caller key verbatim so nothing is silently
// dropped. Model and Messages are always populated. It is built fresh per
// call and shares no storage with the caller's map.
type ValidatedParameters struct {
	Model    string
	Messages []api.Message

	// Prompt holds the original prompt key when the provider retains it
	// after deriving messages. Nil when absent or dropped.
	Prompt *string

	MaxTokens   int
	Temperature *float64
	TopP        *float64
	TopK        *int
	Seed        *int
	Stream      bool

	// Extra carries caller keys the provider does not declare. Values are
	// forwarded to the upstream untouched.
	Extra map[string]any
}

// TakeInt removes field from Extra and coerces it to an int. The boolean
// reports whether the field was present; a present value that cannot be
// converted yields an api.InvalidParameterTypeError.
func (v *ValidatedParameters) TakeInt(field string) (int, bool, error) {
	raw, ok := v.Extra[field]
	if !ok {
		return 0, false, nil
	}
	delete(v.Extra, field)
	n, err := coerceInt(field, raw)
	if err != nil {
		return 0, true, err
	}
	return n, true, nil
}

// TakeFloat removes field from Extra and coerces it to a float64. The
// boolean reports whether the field was present; a present value that
// cannot be converted yields an api.InvalidParameterTypeError.
func (v *ValidatedParameters) TakeFloat(field string) (float64, bool, error) {
	raw, ok := v.Extra[field]
	if !ok {
		return 0, false, nil
	}
	delete(v.Extra, field)
	f, err := coerceFloat(field, raw)
	if err != nil {
		return 0, true, err
	}
	return f, true, nil
}

// Drop removes field from Extra without reading it. Used for fields a
// model variant forbids: the value must end up absent, not defaulted.
func (v *ValidatedParameters) Drop(field string) {
	delete(v.Extra, field)
}

// ValidationSpec is the provider-independent half of parameter validation.
// Each provider supplies its identity, supported-model set, and prompt
// retention policy; numeric bounds stay in the provider, which applies them
// after Validate via TakeInt/TakeFloat.
type ValidationSpec struct {
	// Provider is the name used in error values.
	Provider string

	// Supported is the sole gate for model validity.
	Supported []string

	// DropPrompt removes the prompt key once it has been converted to
	// messages. When messages were supplied directly no conversion happens
	// and a redundant prompt key is retained either way.
	DropPrompt bool
}

// Validate runs the shared validation steps: model membership, input
// presence, message derivation, stream coercion, and verbatim passthrough
// of undeclared keys. The caller's map is never mutated.
func (s ValidationSpec) Validate(model string, params RequestParameters) (*ValidatedParameters, error) {
	supported := false
	for _, m := range s.Supported {
		if m == model {
			supported = true
			break
		}
	}
	if !supported {
		return nil, &api.UnsupportedModelError{Provider: s.Provider, Model: model, Supported: s.Supported}
	}

	rawPrompt, hasPrompt := params["prompt"]
	rawMessages, hasMessages := params["messages"]
	if !hasPrompt && !hasMessages {
		return nil, &api.MissingInputError{Provider: s.Provider}
	}

	vp := &ValidatedParameters{
		Model: model,
		Extra: make(map[string]any, len(params)),
	}

	if hasMessages {
		msgs, err := messagesFromAny(rawMessages)
		if err != nil {
			return nil, err
		}
		vp.Messages = msgs
		if hasPrompt {
			p := stringify(rawPrompt)
			vp.Prompt = &p
		}
	} else {
		p := stringify(rawPrompt)
		vp.Messages = []api.Message{{Role: "user", Content: p}}
		if !s.DropPrompt {
			vp.Prompt = &p
		}
	}

	if raw, ok := params["stream"]; ok {
		vp.Stream = coerceBool(raw)
	}

	for k, val := range params {
		switch k {
		case "model", "messages", "prompt", "stream":
			continue
		}
		vp.Extra[k] = val
	}

	return vp, nil
}

// messagesFromAny converts the caller's messages value into the typed
// conversation sequence. JSON-decoded input arrives as []any of maps;
// direct Go callers may pass []api.Message.
func messagesFromAny(raw any) ([]api.Message, error) {
	switch t := raw.(type) {
	case []api.Message:
		msgs := make([]api.Message, len(t))
		copy(msgs, t)
		return msgs, nil
	case []map[string]any:
		msgs := make([]api.Message, 0, len(t))
		for _, m := range t {
			msgs = append(msgs, messageFromMap(m))
		}
		return msgs, nil
	case []any:
		msgs := make([]api.Message, 0, len(t))
		for _, el := range t {
			m, ok := el.(map[string]any)
			if !ok {
				return nil, &api.InvalidParameterTypeError{Field: "messages", Value: el}
			}
			msgs = append(msgs, messageFromMap(m))
		}
		return msgs, nil
	default:
		return nil, &api.InvalidParameterTypeError{Field: "messages", Value: raw}
	}
}

func messageFromMap(m map[string]any) api.Message {
	var msg api.Message
	if role, ok := m["role"].(string); ok {
		msg.Role = role
	}
	if content, ok := m["content"]; ok {
		msg.Content = stringify(content)
	}
	return msg
}

func coerceInt(field string, v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int32:
		return int(t), nil
	case int64:
		return int(t), nil
	case float32:
		return int(t), nil
	case float64:
		return int(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i), nil
		}
		if f, err := t.Float64(); err == nil {
			return int(f), nil
		}
	case string:
		if i, err := strconv.Atoi(t); err == nil {
			return i, nil
		}
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	}
	return 0, &api.InvalidParameterTypeError{Field: field, Value: v}
}

func coerceFloat(field string, v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f, nil
		}
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f, nil
		}
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	}
	return 0, &api.InvalidParameterTypeError{Field: field, Value: v}
}

// coerceBool applies loose truthiness so numeric and string flags behave
// predictably: empty string, zero, and nil are false, everything else true.
func coerceBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case nil:
		return false
	default:
		return true
	}
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
