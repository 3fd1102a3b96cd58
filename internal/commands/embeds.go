package commands

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tbourn/gitcord/internal/discord"
	"github.com/tbourn/gitcord/internal/github"
)

// Embed colours.
const (
	colorOpen   = 0x238636
	colorClosed = 0x8957e5
	colorDraft  = 0x6e7681
)

// maxDescription is how much of an issue or pull request body an embed
// shows before linking to the rest.
const maxDescription = 1000

// timestamp renders t as a Discord timestamp; style is one of R, f, F.
func timestamp(t time.Time, style string) string {
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), style)
}

func userLink(u github.User) string {
	return fmt.Sprintf("[`%s`](%s)", u.Login, u.HTMLURL)
}

func userLinks(users []github.User) string {
	links := make([]string, len(users))
	for i, u := range users {
		links[i] = userLink(u)
	}
	return strings.Join(links, ", ")
}

func labelList(labels []string) string {
	if len(labels) == 0 {
		return "No Labels"
	}
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = "`" + l + "`"
	}
	return strings.Join(quoted, ", ")
}

func description(body, url string) string {
	if body == "" {
		return "No Description"
	}
	if utf8.RuneCountInString(body) <= maxDescription {
		return body
	}
	return string([]rune(body)[:maxDescription]) + fmt.Sprintf("\n\n[**...**](%s)", url)
}

func author(u github.User) *discord.EmbedAuthor {
	return &discord.EmbedAuthor{Name: u.Login, URL: u.HTMLURL, IconURL: u.AvatarURL}
}

// IssueSummary is the line shown above an issue embed.
func IssueSummary(is github.Issue) string {
	return fmt.Sprintf("%s opened this issue %s | %d comments", userLink(is.Author), timestamp(is.CreatedAt, "R"), is.Comments)
}

// IssueEmbed renders an issue.
func IssueEmbed(is github.Issue) discord.Embed {
	state := "**State**: " + is.State
	if is.State == "closed" {
		closedAt, closedBy := "N/A", "N/A"
		if !is.ClosedAt.IsZero() {
			closedAt = timestamp(is.ClosedAt, "f")
		}
		if is.ClosedBy.Login != "" {
			closedBy = userLink(is.ClosedBy)
		}
		state += fmt.Sprintf(", at %s, by %s", closedAt, closedBy)
		if is.StateReason != "" {
			state += ", **Reason**: " + humanize(is.StateReason)
		}
	}
	misc := []string{state, fmt.Sprintf("**Locked**: %t", is.Locked)}
	if is.Milestone != "" {
		misc = append(misc, "**Milestone**: "+is.Milestone)
	}

	var fields []discord.EmbedField
	if len(is.Assignees) > 0 {
		fields = append(fields, discord.EmbedField{Name: "Assignees", Value: userLinks(is.Assignees)})
	}
	fields = append(fields,
		discord.EmbedField{Name: "Labels", Value: labelList(is.Labels), Inline: true},
		discord.EmbedField{Name: "Misc", Value: strings.Join(misc, "\n"), Inline: true},
	)

	color := colorOpen
	if is.State == "closed" {
		color = colorClosed
	}
	return discord.Embed{
		Title:       discord.Clip(fmt.Sprintf("%s #%d", is.Title, is.Number), 256),
		URL:         is.HTMLURL,
		Description: description(is.Body, is.HTMLURL),
		Color:       color,
		Author:      author(is.Author),
		Fields:      fields,
	}
}

// PullSummary is the line shown above a pull request embed.
func PullSummary(pr github.PullRequest) string {
	return fmt.Sprintf("%s wants to merge %d commits into [`%s`](%s) from [`%s`](%s)",
		userLink(pr.Author), pr.Commits, pr.Base.Label, pr.Base.HTMLURL, pr.Head.Label, pr.Head.HTMLURL)
}

// PullEmbed renders a pull request.
func PullEmbed(pr github.PullRequest) discord.Embed {
	diff := strings.Join([]string{
		"```diff",
		fmt.Sprintf("+ %d", pr.Additions),
		fmt.Sprintf("- %d", pr.Deletions),
		"```",
		fmt.Sprintf("with changes in [%d file(s)](%s/files)", pr.ChangedFiles, pr.HTMLURL),
		fmt.Sprintf("and [%d commits](%s/commits)", pr.Commits, pr.HTMLURL),
	}, "\n")
	misc := strings.Join([]string{
		"**Created at**: " + timestamp(pr.CreatedAt, "f"),
		fmt.Sprintf("**Draft**: %t", pr.Draft),
		fmt.Sprintf("**Maintainer Can Modify**: %t", pr.MaintainerCanModify),
		fmt.Sprintf("**Merged**: %t", pr.Merged),
		fmt.Sprintf("**State**: %s, **Locked**: %t", pr.State, pr.Locked),
	}, "\n")

	var fields []discord.EmbedField
	if len(pr.Assignees) > 0 {
		fields = append(fields, discord.EmbedField{Name: "Assignees", Value: userLinks(pr.Assignees)})
	}
	fields = append(fields,
		discord.EmbedField{Name: "Additions/Deletions", Value: diff, Inline: true},
		discord.EmbedField{Name: "Labels", Value: labelList(pr.Labels), Inline: true},
		discord.EmbedField{Name: "Misc", Value: misc, Inline: true},
	)

	color := colorOpen
	switch {
	case pr.Draft:
		color = colorDraft
	case pr.State == "closed":
		color = colorClosed
	}
	return discord.Embed{
		Title:       discord.Clip(fmt.Sprintf("%s #%d", pr.Title, pr.Number), 256),
		URL:         pr.HTMLURL,
		Description: description(pr.Body, pr.HTMLURL),
		Color:       color,
		Author:      author(pr.Author),
		Fields:      fields,
	}
}

// issueMessage builds the reply for an issue. Simplified profiles get the
// summary and a link instead of an embed.
func issueMessage(prefix string, is github.Issue, simplified bool) discord.ResponseData {
	data := discord.ResponseData{
		Content:    prefix + IssueSummary(is),
		Components: []discord.Component{discord.Row(discord.LinkButton(is.HTMLURL, "Edit"))},
	}
	if simplified {
		data.Content += "\n" + is.HTMLURL
	} else {
		data.Embeds = []discord.Embed{IssueEmbed(is)}
	}
	return data
}

func pullMessage(prefix string, pr github.PullRequest, simplified bool) discord.ResponseData {
	data := discord.ResponseData{
		Content:    prefix + PullSummary(pr),
		Components: []discord.Component{discord.Row(discord.LinkButton(pr.HTMLURL, "Edit"))},
	}
	if simplified {
		data.Content += "\n" + pr.HTMLURL
	} else {
		data.Embeds = []discord.Embed{PullEmbed(pr)}
	}
	return data
}
