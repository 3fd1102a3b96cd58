package discord

import "unicode/utf8"

// Platform limits on component text.
const (
	maxLabel      = 80
	maxModalTitle = 45
	maxInputLabel = 45
	maxInputValue = 4000
	maxChoiceText = 100
)

// MaxChoiceValue is the longest string value an autocomplete choice may
// carry.
const MaxChoiceValue = 100

// Button builds an interactive button.
func Button(customID, label string, style ButtonStyle) Component {
	return Component{
		Type:     ComponentButton,
		CustomID: customID,
		Label:    Clip(label, maxLabel),
		Style:    int(style),
	}
}

// LinkButton builds a button that opens url.
func LinkButton(url, label string) Component {
	return Component{
		Type:  ComponentButton,
		URL:   url,
		Label: Clip(label, maxLabel),
		Style: int(ButtonLink),
	}
}

// Row wraps components in an action row.
func Row(components ...Component) Component {
	return Component{Type: ComponentActionRow, Components: components}
}

// TextInput builds a modal text input prefilled with value.
func TextInput(customID, label string, style TextInputStyle, value string, required bool) Component {
	return Component{
		Type:     ComponentTextInput,
		CustomID: customID,
		Label:    Clip(label, maxInputLabel),
		Style:    int(style),
		Value:    Clip(value, maxInputValue),
		Required: &required,
	}
}

// Modal builds a modal response; each input gets its own action row.
func Modal(customID, title string, inputs ...Component) Response {
	rows := make([]Component, 0, len(inputs))
	for _, in := range inputs {
		rows = append(rows, Row(in))
	}
	return Response{
		Type: ResponseModal,
		Data: &ResponseData{
			CustomID:   customID,
			Title:      Clip(title, maxModalTitle),
			Components: rows,
		},
	}
}

// Reply builds a channel message response.
func Reply(data ResponseData, ephemeral bool) Response {
	if ephemeral {
		data.Flags |= FlagEphemeral
	}
	return Response{Type: ResponseChannelMessage, Data: &data}
}

// Text is a Reply with only content.
func Text(content string, ephemeral bool) Response {
	return Reply(ResponseData{Content: content}, ephemeral)
}

// Update builds a response that edits the message carrying the component.
// Components is always set so that omitted buttons are removed.
func Update(data ResponseData) Response {
	if data.Components == nil {
		data.Components = []Component{}
	}
	return Response{Type: ResponseUpdateMessage, Data: &data}
}

// Choices builds an autocomplete result of at most MaxChoices entries.
// Names are clipped. Choices whose string value is longer than
// MaxChoiceValue are dropped.
func Choices(choices []Choice) Response {
	out := make([]Choice, 0, min(len(choices), MaxChoices))
	for _, c := range choices {
		if len(out) == MaxChoices {
			break
		}
		if s, ok := c.Value.(string); ok && utf8.RuneCountInString(s) > MaxChoiceValue {
			continue
		}
		out = append(out, Choice{Name: Clip(c.Name, maxChoiceText), Value: c.Value})
	}
	return Response{Type: ResponseAutocompleteResult, Data: &ResponseData{Choices: &out}}
}

// StringChoices turns plain values into choices named after themselves.
func StringChoices(values []string) []Choice {
	out := make([]Choice, 0, len(values))
	for _, v := range values {
		out = append(out, Choice{Name: v, Value: v})
	}
	return out
}

// ModalValues flattens submitted text inputs into custom_id -> value.
func ModalValues(components []Component) map[string]string {
	out := make(map[string]string)
	var walk func([]Component)
	walk = func(cs []Component) {
		for _, c := range cs {
			if c.Type == ComponentTextInput && c.CustomID != "" {
				out[c.CustomID] = c.Value
			}
			if len(c.Components) > 0 {
				walk(c.Components)
			}
		}
	}
	walk(components)
	return out
}

// Clip shortens s to at most max runes, marking the cut with an ellipsis.
func Clip(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}
