package interactions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tbourn/gitcord/internal/clock"
	"github.com/tbourn/gitcord/internal/discord"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeEditor struct {
	mu    sync.Mutex
	edits []discord.MessageEdit
	err   error
}

func (f *fakeEditor) EditOriginal(ctx context.Context, token string, edit discord.MessageEdit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, edit)
	return f.err
}

func (f *fakeEditor) Edits() []discord.MessageEdit {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]discord.MessageEdit(nil), f.edits...)
}

func syncExec(f func()) { f() }

func newTestRegistry(clk *clock.Fake) *Registry {
	return NewRegistry(WithClock(clk), WithExecutor(syncExec))
}

// takeInline returns the inline response, failing if none was written.
func takeInline(t *testing.T, r *Responder) discord.Response {
	t.Helper()
	select {
	case resp := <-r.Inline():
		return resp
	default:
		t.Fatal("expected an inline response")
	}
	return discord.Response{}
}

func noInline(t *testing.T, r *Responder) {
	t.Helper()
	select {
	case resp := <-r.Inline():
		t.Fatalf("unexpected inline response: %+v", resp)
	default:
	}
}

func content(t *testing.T, resp discord.Response) string {
	t.Helper()
	if resp.Data == nil {
		t.Fatalf("response type %d has no data", resp.Type)
	}
	return resp.Data.Content
}
