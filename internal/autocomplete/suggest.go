package autocomplete

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tbourn/gitcord/internal/discord"
	"github.com/tbourn/gitcord/internal/search"
)

var labelSep = regexp.MustCompile(`,\s*`)

// Fuzzy ranks candidates against input; an empty input returns the first
// discord.MaxChoices candidates.
func Fuzzy(candidates []string, input string) []string {
	res := search.NewIndex(candidates).TopK(input, discord.MaxChoices)
	out := make([]string, len(res))
	for i, r := range res {
		out[i] = r.Value
	}
	return out
}

// RepoNames suggests repositories of owner from the entry.
func RepoNames(e *Entry, owner, input string) []string {
	if e == nil {
		return nil
	}
	var names []string
	for _, r := range e.Repos {
		if owner == "" || strings.EqualFold(r.Owner, owner) {
			names = append(names, r.Name)
		}
	}
	return Fuzzy(names, input)
}

// Owners suggests owners: cached logins, owners of the caller's
// repositories and the caller's own login.
func (c *Cache) Owners(e *Entry, callerLogin, input string) []string {
	cands := c.Logins()
	if e != nil {
		for _, r := range e.Repos {
			cands = append(cands, r.Owner)
		}
	}
	cands = append(cands, callerLogin)
	return Fuzzy(dedupeFold(cands), input)
}

// Numbers filters numbers whose decimal form contains input, keeping order.
func Numbers(nums []int, input string) []int {
	input = strings.TrimSpace(input)
	out := make([]int, 0, min(len(nums), discord.MaxChoices))
	for _, n := range nums {
		if len(out) == discord.MaxChoices {
			break
		}
		if input == "" || strings.Contains(strconv.Itoa(n), input) {
			out = append(out, n)
		}
	}
	return out
}

// NumberChoices renders numbers as integer-valued choices.
func NumberChoices(nums []int) []discord.Choice {
	out := make([]discord.Choice, len(nums))
	for i, n := range nums {
		out[i] = discord.Choice{Name: strconv.Itoa(n), Value: n}
	}
	return out
}

// Kind selects which numbers RepoNumbers reads.
type Kind int

const (
	Issues Kind = iota
	Pulls
)

// RepoNumbers returns issue or pull numbers of owner/repo matching input.
// Repositories missing from the entry are fetched live from src.
func RepoNumbers(ctx context.Context, e *Entry, src Source, kind Kind, owner, repo, input string) []int {
	var nums []int
	if r := e.Repo(owner, repo); r != nil {
		nums = r.Issues
		if kind == Pulls {
			nums = r.Pulls
		}
	} else if src != nil {
		nums = fetchNumbers(ctx, src, kind, owner, repo)
	}
	return Numbers(nums, input)
}

func fetchNumbers(ctx context.Context, src Source, kind Kind, owner, repo string) []int {
	var nums []int
	if kind == Pulls {
		pulls, err := src.ListPulls(ctx, owner, repo)
		if err != nil {
			return nil
		}
		for _, p := range pulls {
			nums = append(nums, p.Number)
		}
		return nums
	}
	issues, err := src.ListIssues(ctx, owner, repo)
	if err != nil {
		return nil
	}
	for _, is := range issues {
		nums = append(nums, is.Number)
	}
	return nums
}

// RepoLabels returns the labels of owner/repo from the entry, fetching them
// live when the repository is not cached.
func RepoLabels(ctx context.Context, e *Entry, src Source, owner, repo string) []string {
	if r := e.Repo(owner, repo); r != nil {
		return r.Labels
	}
	if src == nil {
		return nil
	}
	labels, err := src.ListLabels(ctx, owner, repo)
	if err != nil {
		return nil
	}
	return labels
}

// SuggestLabels completes a comma separated label list. Items before the
// last comma are kept as typed (lowercased, deduplicated); the last item is
// the fragment matched against labels not chosen yet. Each choice carries the
// whole list so that selecting it replaces the option value.
//
//	SuggestLabels("bug, enh", []string{"bug", "enhancement"})
//	  -> [{Name: "bug, enhancement", Value: "bug, enhancement"}]
func SuggestLabels(input string, labels []string) []discord.Choice {
	var chosen []string
	seen := make(map[string]struct{})
	fragment := ""
	if strings.TrimSpace(input) != "" {
		items := labelSep.Split(input, -1)
		fragment = strings.ToLower(strings.TrimSpace(items[len(items)-1]))
		for _, it := range items[:len(items)-1] {
			it = strings.ToLower(strings.TrimSpace(it))
			if it == "" {
				continue
			}
			if _, dup := seen[it]; dup {
				continue
			}
			seen[it] = struct{}{}
			chosen = append(chosen, it)
		}
	}

	prefix := strings.Join(chosen, ", ")
	join := func(s string) string {
		if prefix == "" {
			return s
		}
		return prefix + ", " + s
	}

	// A list too long for a choice value is left out rather than cut.
	var free []string
	byLower := make(map[string]string, len(labels))
	for _, l := range labels {
		low := strings.ToLower(l)
		if _, taken := seen[low]; taken {
			continue
		}
		if _, dup := byLower[low]; dup {
			continue
		}
		if utf8.RuneCountInString(join(low)) > discord.MaxChoiceValue {
			continue
		}
		byLower[low] = l
		free = append(free, l)
	}

	matches := Fuzzy(free, fragment)
	out := make([]discord.Choice, 0, len(matches))
	for _, l := range matches {
		out = append(out, discord.Choice{Name: join(l), Value: join(strings.ToLower(l))})
	}
	return out
}

func dedupeFold(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		k := strings.ToLower(strings.TrimSpace(s))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}
