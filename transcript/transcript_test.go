package transcript_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryoyaiwata8-sudo/mail-review/models"
	"github.com/ryoyaiwata8-sudo/mail-review/transcript"
)

// countingProvider wraps a StaticProvider and counts backend calls.
type countingProvider struct {
	inner transcript.StaticProvider
	calls int
}

func (p *countingProvider) Transcribe(ctx context.Context, path string) (transcript.Result, error) {
	p.calls++
	return p.inner.Transcribe(ctx, path)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestService_CachesResults(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "M001_照会_湯本.mp3")
	require.NoError(t, os.WriteFile(audio, []byte("mp3"), 0o644))

	provider := &countingProvider{inner: transcript.StaticProvider{
		Results: map[string]transcript.Result{
			audio: {Text: "もしもし", TotalDurationSec: 120, HoldTotalSec: 30},
		},
	}}
	svc := transcript.NewService(provider, discardLogger())

	first, err := svc.Transcribe(context.Background(), audio)
	require.NoError(t, err)
	assert.Equal(t, "もしもし", first.Text)
	assert.Equal(t, 1, provider.calls)

	// Second call is served from the sidecar cache.
	second, err := svc.Transcribe(context.Background(), audio)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, provider.calls)

	assert.FileExists(t, audio+".json")
}

func TestService_StaleCacheReprocessed(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "M002_照会_湯本.mp3")
	require.NoError(t, os.WriteFile(audio, []byte("mp3"), 0o644))
	// Old cache entry without a duration is considered stale.
	require.NoError(t, os.WriteFile(audio+".json", []byte(`{"text":"old"}`), 0o644))

	provider := &countingProvider{inner: transcript.StaticProvider{
		Results: map[string]transcript.Result{
			audio: {Text: "new", TotalDurationSec: 60},
		},
	}}
	svc := transcript.NewService(provider, discardLogger())

	res, err := svc.Transcribe(context.Background(), audio)
	require.NoError(t, err)
	assert.Equal(t, "new", res.Text)
	assert.Equal(t, 1, provider.calls)
}

func TestService_PlainTextCacheUsed(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "M005_照会_湯本.mp3")
	require.NoError(t, os.WriteFile(audio, []byte("mp3"), 0o644))
	// Transcript left behind by older tooling, text only.
	require.NoError(t, os.WriteFile(audio+".txt", []byte("お電話ありがとうございます"), 0o644))

	provider := &countingProvider{}
	svc := transcript.NewService(provider, discardLogger())

	res, err := svc.Transcribe(context.Background(), audio)
	require.NoError(t, err)
	assert.Equal(t, "お電話ありがとうございます", res.Text)
	assert.Zero(t, res.TotalDurationSec)
	assert.Equal(t, 0, provider.calls)
}

func TestService_BlankPlainTextCacheIgnored(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "M006_照会_湯本.mp3")
	require.NoError(t, os.WriteFile(audio, []byte("mp3"), 0o644))
	require.NoError(t, os.WriteFile(audio+".txt", []byte("  \n"), 0o644))

	provider := &countingProvider{inner: transcript.StaticProvider{
		Results: map[string]transcript.Result{
			audio: {Text: "新規", TotalDurationSec: 45},
		},
	}}
	svc := transcript.NewService(provider, discardLogger())

	res, err := svc.Transcribe(context.Background(), audio)
	require.NoError(t, err)
	assert.Equal(t, "新規", res.Text)
	assert.Equal(t, 1, provider.calls)
}

func TestService_ProviderError(t *testing.T) {
	svc := transcript.NewService(&transcript.StaticProvider{}, discardLogger())
	_, err := svc.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.mp3"))
	assert.Error(t, err)
}

func TestFillBodies(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "M003_照会_湯本.mp3")
	require.NoError(t, os.WriteFile(audio, []byte("mp3"), 0o644))

	call := &models.Interaction{ID: "M003", Channel: models.ChannelCall, Agent: "湯本", FilePath: audio}
	transcribed := &models.Interaction{ID: "M004", Channel: models.ChannelCall, Agent: "湯本", FilePath: "/nope.mp3", Body: "既存"}
	email := &models.Interaction{ID: "55", Channel: models.ChannelEmail, Agent: "湯本", Body: "メール本文"}

	c := models.NewCase("CASE_湯本_20260210")
	c.AddInteraction(call)
	c.AddInteraction(transcribed)
	c.AddInteraction(email)

	svc := transcript.NewService(&transcript.StaticProvider{
		Results: map[string]transcript.Result{
			audio: {Text: "お電話ありがとうございます", TotalDurationSec: 90},
		},
	}, discardLogger())

	svc.FillBodies(context.Background(), []*models.Case{c})

	assert.Equal(t, "お電話ありがとうございます", call.Body)
	// Already-transcribed calls and emails are left alone.
	assert.Equal(t, "既存", transcribed.Body)
	assert.Equal(t, "メール本文", email.Body)
}

func TestStripJSONFences(t *testing.T) {
	tests := map[string]struct {
		input    string
		expected string
	}{
		"Fenced":    {"```json\n{\"a\":1}\n```", `{"a":1}`},
		"Plain":     {`{"a":1}`, `{"a":1}`},
		"BareFence": {"```\n{\"a\":1}\n```", `{"a":1}`},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expected, transcript.StripJSONFences(tt.input))
		})
	}
}
