package autocomplete

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tbourn/gitcord/internal/clock"
	"github.com/tbourn/gitcord/internal/github"
)

type fakeSource struct {
	repoCalls  atomic.Int32
	pullCalls  atomic.Int32
	issueCalls atomic.Int32
	labelCalls atomic.Int32

	repos   []github.Repository
	repoErr error
	gate    chan struct{} // when set, ListRepositories blocks until closed

	mu     sync.Mutex
	listed []string
}

func (f *fakeSource) ListRepositories(ctx context.Context, login string) ([]github.Repository, error) {
	f.repoCalls.Add(1)
	f.mu.Lock()
	f.listed = append(f.listed, login)
	f.mu.Unlock()
	if f.gate != nil {
		<-f.gate
	}
	if login != "" {
		return []github.Repository{{Owner: login, Name: "public"}}, f.repoErr
	}
	return f.repos, f.repoErr
}

func (f *fakeSource) ListPulls(ctx context.Context, owner, repo string) ([]github.PullRequest, error) {
	f.pullCalls.Add(1)
	return []github.PullRequest{{Number: 7}, {Number: 12}}, nil
}

func (f *fakeSource) ListIssues(ctx context.Context, owner, repo string) ([]github.Issue, error) {
	f.issueCalls.Add(1)
	if repo == "broken" {
		return nil, errors.New("boom")
	}
	return []github.Issue{{Number: 42}, {Number: 142}, {Number: 3}}, nil
}

func (f *fakeSource) ListLabels(ctx context.Context, owner, repo string) ([]string, error) {
	f.labelCalls.Add(1)
	return []string{"bug", "enhancement"}, nil
}

func twoRepos() []github.Repository {
	return []github.Repository{{Owner: "octo", Name: "hello"}, {Owner: "acme", Name: "broken"}}
}

func TestCache_FreshHitReturnsSameEntry(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	c := New(WithClock(clk))
	src := &fakeSource{repos: twoRepos()}
	ctx := context.Background()

	first := c.Get(ctx, "octo", src)
	if first == nil {
		t.Fatal("expected an entry")
	}
	clk.Advance(59 * time.Minute)
	second := c.Get(ctx, "OCTO", src)
	if second != first {
		t.Fatal("fresh hit must return the cached entry")
	}
	if n := src.repoCalls.Load(); n != 1 {
		t.Fatalf("expected 1 upstream listing, got %d", n)
	}
	if n := src.pullCalls.Load(); n != 2 {
		t.Fatalf("expected one pulls fetch per repo, got %d", n)
	}
}

func TestCache_StaleEntryIsRefreshed(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	c := New(WithClock(clk), WithTTL(time.Hour))
	src := &fakeSource{repos: twoRepos()}
	ctx := context.Background()

	first := c.Get(ctx, "octo", src)
	clk.Advance(time.Hour)
	second := c.Get(ctx, "octo", src)
	if second == first {
		t.Fatal("stale entry must be replaced")
	}
	if n := src.repoCalls.Load(); n != 2 {
		t.Fatalf("expected 2 upstream listings, got %d", n)
	}
	if !second.LastRefreshed.Equal(clk.Now()) {
		t.Fatalf("LastRefreshed = %v", second.LastRefreshed)
	}
}

func TestCache_RefreshFailureCachesNothing(t *testing.T) {
	c := New()
	src := &fakeSource{repoErr: errors.New("401")}
	ctx := context.Background()

	if e := c.Get(ctx, "octo", src); e != nil {
		t.Fatalf("expected nil on failure, got %+v", e)
	}
	if e := c.Get(ctx, "octo", src); e != nil {
		t.Fatal("failure must not be cached as an entry")
	}
	if n := src.repoCalls.Load(); n != 2 {
		t.Fatalf("each Get must retry upstream, got %d calls", n)
	}
	if len(c.Logins()) != 0 {
		t.Fatalf("nothing must be cached, got %v", c.Logins())
	}
}

func TestCache_PartialRepoFailureKeepsEmptyLists(t *testing.T) {
	c := New()
	e := c.Get(context.Background(), "octo", &fakeSource{repos: twoRepos()})
	broken := e.Repo("ACME", "Broken")
	if broken == nil {
		t.Fatal("repo lookup must be case-insensitive")
	}
	if len(broken.Issues) != 0 || len(broken.Pulls) != 2 {
		t.Fatalf("unexpected repo: %+v", broken)
	}
}

func TestCache_ConcurrentRefreshCollapses(t *testing.T) {
	c := New()
	src := &fakeSource{repos: twoRepos(), gate: make(chan struct{})}
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	results := make([]*Entry, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.Get(ctx, "octo", src)
		}()
	}
	// Let every goroutine reach the shared flight before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	if calls := src.repoCalls.Load(); calls != 1 {
		t.Fatalf("expected a single upstream listing, got %d", calls)
	}
	for i, r := range results {
		if r == nil || r != results[0] {
			t.Fatalf("result %d differs: %p vs %p", i, r, results[0])
		}
	}
}

func TestCache_Invalidate(t *testing.T) {
	c := New()
	src := &fakeSource{repos: twoRepos()}
	ctx := context.Background()
	c.Get(ctx, "octo", src)
	c.Invalidate("Octo")
	c.Get(ctx, "octo", src)
	if n := src.repoCalls.Load(); n != 2 {
		t.Fatalf("Invalidate must force a refresh, got %d calls", n)
	}
}

func TestCache_OwnerEntriesAreSeparateFromCallerEntries(t *testing.T) {
	c := New()
	src := &fakeSource{repos: twoRepos()}
	ctx := context.Background()

	self := c.Get(ctx, "octo", src)
	public := c.GetOwner(ctx, "Octo", src)
	if self == public || !self.Self || public.Self {
		t.Fatalf("self = %+v, public = %+v", self, public)
	}
	if public.Repo("octo", "public") == nil || public.Repo("acme", "broken") != nil {
		t.Fatalf("public entry must hold only the owner's public listing: %+v", public.Repos)
	}
	if !self.HasOwner("ACME") || public.HasOwner("acme") {
		t.Fatal("HasOwner mismatch")
	}
	if got := c.Logins(); len(got) != 1 || got[0] != "octo" {
		t.Fatalf("Logins = %v", got)
	}
	if len(src.listed) != 2 || src.listed[0] != "" || src.listed[1] != "Octo" {
		t.Fatalf("listed = %v", src.listed)
	}

	c.Invalidate("OCTO")
	if len(c.Logins()) != 0 {
		t.Fatalf("Invalidate must drop both entries, got %v", c.Logins())
	}
}
