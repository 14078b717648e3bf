package prompt

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
	"warden/pkg/api/discord"
	"warden/pkg/api/discord/discordtest"
	"warden/pkg/log"
)

func TestMain(m *testing.M) {
	log.InitializeConsoleLogger(log.Critical)
	os.Exit(m.Run())
}

func waitForAwaiters(t *testing.T, f *discordtest.Fake, n int) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for f.Awaiters() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d awaiters, got %d", n, f.Awaiters())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestAskAnswered(t *testing.T) {
	f := discordtest.NewFake()
	f.Script(discordtest.Reply{UserID: "mod", Content: "10m"})

	transcript := NewTranscript("c1")
	answer, err := Ask(context.Background(), f, transcript, Question{
		ChannelID: "c1",
		UserID:    "mod",
		Text:      "How long?",
		Emoji:     discord.EmojiCancel,
	})
	if err != nil {
		t.Fatalf("unexpected error, %s", err)
	}
	if answer.Reacted || answer.Content != "10m" {
		t.Fatalf("unexpected answer, %+v", answer)
	}
	if f.Awaiters() != 0 {
		t.Fatalf("expected listeners removed, got %d", f.Awaiters())
	}
	if len(transcript.MessageIDs()) != 2 {
		t.Fatalf("expected question and answer in transcript, got %v", transcript.MessageIDs())
	}
}

func TestAskReacted(t *testing.T) {
	f := discordtest.NewFake()
	f.Script(discordtest.Reply{UserID: "mod", Emoji: discord.EmojiMute})

	answer, err := Ask(context.Background(), f, NewTranscript("c1"), Question{
		ChannelID: "c1",
		UserID:    "mod",
		Text:      "Reason?",
		Emoji:     discord.EmojiMute,
	})
	if err != nil {
		t.Fatalf("unexpected error, %s", err)
	}
	if !answer.Reacted {
		t.Fatalf("expected reaction answer, got %+v", answer)
	}
}

func TestAskCancelled(t *testing.T) {
	f := discordtest.NewFake()
	f.Script(discordtest.Reply{UserID: "mod", Emoji: discord.EmojiCancel})

	_, err := Ask(context.Background(), f, NewTranscript("c1"), Question{
		ChannelID:        "c1",
		UserID:           "mod",
		Text:             "How long?",
		Emoji:            discord.EmojiCancel,
		CancelOnReaction: true,
	})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if f.Awaiters() != 0 {
		t.Fatalf("expected listeners removed, got %d", f.Awaiters())
	}
}

func TestAskIgnoresOtherUsers(t *testing.T) {
	f := discordtest.NewFake()

	done := make(chan *Answer, 1)
	go func() {
		answer, err := Ask(context.Background(), f, NewTranscript("c1"), Question{
			ChannelID: "c1",
			UserID:    "mod",
			Text:      "How long?",
		})
		if err != nil {
			t.Errorf("unexpected error, %s", err)
		}
		done <- answer
	}()

	waitForAwaiters(t, f, 2)
	f.Emit(&discord.Event{Type: discord.EventTypeMessage, ChannelID: "c1", UserID: "someone", Content: "1y"})
	f.Emit(&discord.Event{Type: discord.EventTypeMessage, ChannelID: "c2", UserID: "mod", Content: "1d"})
	f.Emit(&discord.Event{Type: discord.EventTypeMessage, ChannelID: "c1", UserID: "mod", Content: "1h"})

	select {
	case answer := <-done:
		if answer == nil || answer.Content != "1h" {
			t.Fatalf("unexpected answer, %+v", answer)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("prompt never resolved")
	}
}

func TestAskRejectsThenAccepts(t *testing.T) {
	f := discordtest.NewFake()
	f.Script(discordtest.Reply{UserID: "mod", Content: "soon"})

	done := make(chan *Answer, 1)
	go func() {
		answer, err := Ask(context.Background(), f, NewTranscript("c1"), Question{
			ChannelID: "c1",
			UserID:    "mod",
			Text:      "How long?",
			Emoji:     discord.EmojiCancel,
			Accept: func(content string) bool {
				return strings.HasSuffix(content, "m")
			},
			RejectNotice: "That's not a valid length of time.",
		})
		if err != nil {
			t.Errorf("unexpected error, %s", err)
		}
		done <- answer
	}()

	deadline := time.Now().Add(5 * time.Second)
	for !f.SentContaining("c1", "not a valid length") {
		if time.Now().After(deadline) {
			t.Fatal("expected a rejection notice")
		}
		time.Sleep(time.Millisecond)
	}

	f.Emit(&discord.Event{Type: discord.EventTypeMessage, ChannelID: "c1", UserID: "mod", MessageID: "m2", Content: "5m"})

	select {
	case answer := <-done:
		if answer == nil || answer.Content != "5m" {
			t.Fatalf("unexpected answer, %+v", answer)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("prompt never resolved")
	}
}

func TestAskTimeout(t *testing.T) {
	f := discordtest.NewFake()

	_, err := Ask(context.Background(), f, NewTranscript("c1"), Question{
		ChannelID: "c1",
		UserID:    "mod",
		Text:      "How long?",
		Timeout:   20 * time.Millisecond,
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if f.Awaiters() != 0 {
		t.Fatalf("expected listeners removed, got %d", f.Awaiters())
	}
}

func TestAskParentCancelled(t *testing.T) {
	f := discordtest.NewFake()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Ask(ctx, f, NewTranscript("c1"), Question{ChannelID: "c1", UserID: "mod", Text: "How long?", Timeout: time.Minute})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTranscriptClear(t *testing.T) {
	f := discordtest.NewFake()

	transcript := NewTranscript("c1")
	transcript.Add("a")
	transcript.Add("")
	transcript.Add("b")
	transcript.Clear(f)

	deleted := f.Deleted()
	if len(deleted) != 2 || deleted[0] != "a" || deleted[1] != "b" {
		t.Fatalf("unexpected deletions, %v", deleted)
	}
	if len(transcript.MessageIDs()) != 0 {
		t.Fatal("expected empty transcript")
	}

	transcript.Clear(f)
	if len(f.Deleted()) != 2 {
		t.Fatal("clearing an empty transcript must not delete anything")
	}
}

func TestResolutionFirstWriterWins(t *testing.T) {
	r := NewResolution[int]()

	if _, ok := r.Value(); ok {
		t.Fatal("expected unresolved")
	}

	var wg sync.WaitGroup
	wins := make(chan int, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if r.Resolve(i) {
				wins <- i
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	if len(wins) != 1 {
		t.Fatalf("expected exactly one winner, got %d", len(wins))
	}
	winner := <-wins

	v, err := r.Wait(context.Background())
	if err != nil || v != winner {
		t.Fatalf("expected %d, got %d, %v", winner, v, err)
	}
}

func TestResolutionWaitDeadline(t *testing.T) {
	r := NewResolution[string]()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := r.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	r.Resolve("late")
	if v, err := r.Wait(ctx); err != nil || v != "late" {
		t.Fatalf("a resolved slot must win over a done context, got %q, %v", v, err)
	}
}
