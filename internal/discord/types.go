// Package discord holds the Discord wire types used by the bot, component
// builders, request signature verification and a rate-limit aware REST
// client.
package discord

import "encoding/json"

// InteractionType is the kind of an inbound interaction.
type InteractionType int

const (
	InteractionPing         InteractionType = 1
	InteractionCommand      InteractionType = 2
	InteractionComponent    InteractionType = 3
	InteractionAutocomplete InteractionType = 4
	InteractionModalSubmit  InteractionType = 5
)

// ResponseType is the kind of an interaction response.
type ResponseType int

const (
	ResponsePong                   ResponseType = 1
	ResponseChannelMessage         ResponseType = 4
	ResponseDeferredChannelMessage ResponseType = 5
	ResponseDeferredUpdateMessage  ResponseType = 6
	ResponseUpdateMessage          ResponseType = 7
	ResponseAutocompleteResult     ResponseType = 8
	ResponseModal                  ResponseType = 9
)

// OptionType is an application command option type.
type OptionType int

const (
	OptionSubcommand      OptionType = 1
	OptionSubcommandGroup OptionType = 2
	OptionString          OptionType = 3
	OptionInteger         OptionType = 4
	OptionBoolean         OptionType = 5
	OptionUser            OptionType = 6
	OptionChannel         OptionType = 7
	OptionRole            OptionType = 8
	OptionMentionable     OptionType = 9
	OptionNumber          OptionType = 10
)

// ComponentType is a message component type.
type ComponentType int

const (
	ComponentActionRow ComponentType = 1
	ComponentButton    ComponentType = 2
	ComponentTextInput ComponentType = 4
)

// ButtonStyle is the colour/behaviour of a button.
type ButtonStyle int

const (
	ButtonPrimary   ButtonStyle = 1
	ButtonSecondary ButtonStyle = 2
	ButtonSuccess   ButtonStyle = 3
	ButtonDanger    ButtonStyle = 4
	ButtonLink      ButtonStyle = 5
)

// TextInputStyle selects a single or multi line text input.
type TextInputStyle int

const (
	TextInputShort     TextInputStyle = 1
	TextInputParagraph TextInputStyle = 2
)

// FlagEphemeral marks a message as visible only to the invoking user.
const FlagEphemeral = 1 << 6

// MaxChoices is the largest autocomplete result list Discord accepts.
const MaxChoices = 25

// User is a Discord user.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Member is a guild member wrapper around User.
type Member struct {
	User *User `json:"user,omitempty"`
}

// Interaction is an inbound interaction payload.
type Interaction struct {
	ID            string          `json:"id"`
	ApplicationID string          `json:"application_id"`
	Type          InteractionType `json:"type"`
	Data          json.RawMessage `json:"data,omitempty"`
	GuildID       string          `json:"guild_id,omitempty"`
	ChannelID     string          `json:"channel_id,omitempty"`
	Member        *Member         `json:"member,omitempty"`
	User          *User           `json:"user,omitempty"`
	Token         string          `json:"token"`
	Version       int             `json:"version"`
	Message       *Message        `json:"message,omitempty"`
}

// Invoker returns the user that triggered the interaction, in a guild or a DM.
func (i *Interaction) Invoker() *User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// Message is the subset of a message object the bot reads.
type Message struct {
	ID         string      `json:"id"`
	Content    string      `json:"content,omitempty"`
	Components []Component `json:"components,omitempty"`
}

// CommandData is the data of command and autocomplete interactions.
type CommandData struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Type    int             `json:"type"`
	Options []CommandOption `json:"options,omitempty"`
}

// CommandOption is one (possibly nested) option of an invoked command.
type CommandOption struct {
	Name    string          `json:"name"`
	Type    OptionType      `json:"type"`
	Value   json.RawMessage `json:"value,omitempty"`
	Options []CommandOption `json:"options,omitempty"`
	Focused bool            `json:"focused,omitempty"`
}

// ComponentData is the data of component and modal submit interactions.
type ComponentData struct {
	CustomID      string      `json:"custom_id"`
	ComponentType int         `json:"component_type,omitempty"`
	Values        []string    `json:"values,omitempty"`
	Components    []Component `json:"components,omitempty"`
}

// Component is a message or modal component.
type Component struct {
	Type        ComponentType `json:"type"`
	CustomID    string        `json:"custom_id,omitempty"`
	Style       int           `json:"style,omitempty"`
	Label       string        `json:"label,omitempty"`
	Emoji       *Emoji        `json:"emoji,omitempty"`
	URL         string        `json:"url,omitempty"`
	Disabled    bool          `json:"disabled,omitempty"`
	Placeholder string        `json:"placeholder,omitempty"`
	Value       string        `json:"value,omitempty"`
	Required    *bool         `json:"required,omitempty"`
	MinLength   *int          `json:"min_length,omitempty"`
	MaxLength   *int          `json:"max_length,omitempty"`
	Components  []Component   `json:"components,omitempty"`
}

// Emoji is a unicode emoji reference on a button.
type Emoji struct {
	Name string `json:"name"`
}

// Embed is a rich message embed.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
	Author      *EmbedAuthor `json:"author,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

// EmbedAuthor is the author line of an embed.
type EmbedAuthor struct {
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

// EmbedFooter is the footer line of an embed.
type EmbedFooter struct {
	Text string `json:"text"`
}

// EmbedField is a name/value pair inside an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Choice is one autocomplete suggestion.
type Choice struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// ResponseData is the data of an interaction response. Modal responses use
// CustomID, Title and Components; autocomplete responses use Choices, a
// pointer so that an empty result still serializes as [].
type ResponseData struct {
	Content    string      `json:"content,omitempty"`
	Embeds     []Embed     `json:"embeds,omitempty"`
	Components []Component `json:"components,omitempty"`
	Flags      int         `json:"flags,omitempty"`
	CustomID   string      `json:"custom_id,omitempty"`
	Title      string      `json:"title,omitempty"`
	Choices    *[]Choice   `json:"choices,omitempty"`
}

// MarshalJSON keeps a non-nil empty Components as [], which update
// responses rely on to remove buttons.
func (d ResponseData) MarshalJSON() ([]byte, error) {
	type plain ResponseData
	out := struct {
		plain
		Components *[]Component `json:"components,omitempty"`
	}{plain: plain(d)}
	if d.Components != nil {
		out.Components = &d.Components
	}
	return json.Marshal(out)
}

// Response is the body answered to an inbound interaction.
type Response struct {
	Type ResponseType  `json:"type"`
	Data *ResponseData `json:"data,omitempty"`
}

// MessageEdit is the body of PATCH .../messages/@original. Slices are
// pointers so that an explicit empty list clears components or embeds.
type MessageEdit struct {
	Content    *string      `json:"content,omitempty"`
	Embeds     *[]Embed     `json:"embeds,omitempty"`
	Components *[]Component `json:"components,omitempty"`
}

// ApplicationCommand is the registration body of a slash command.
type ApplicationCommand struct {
	Name         string              `json:"name" yaml:"name"`
	Description  string              `json:"description" yaml:"description"`
	Type         int                 `json:"type,omitempty" yaml:"type,omitempty"`
	DMPermission *bool               `json:"dm_permission,omitempty" yaml:"dm_permission,omitempty"`
	Options      []ApplicationOption `json:"options,omitempty" yaml:"options,omitempty"`
}

// ApplicationOption is one option in a command registration.
type ApplicationOption struct {
	Name         string              `json:"name" yaml:"name"`
	Description  string              `json:"description" yaml:"description"`
	Type         OptionType          `json:"type" yaml:"type"`
	Required     bool                `json:"required,omitempty" yaml:"required,omitempty"`
	Autocomplete bool                `json:"autocomplete,omitempty" yaml:"autocomplete,omitempty"`
	Choices      []Choice            `json:"choices,omitempty" yaml:"choices,omitempty"`
	Options      []ApplicationOption `json:"options,omitempty" yaml:"options,omitempty"`
}
