package runner

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/commitquest/pkg/domain"
)

func TestTextHandler_Output(t *testing.T) {
	entries := []domain.Entry{
		domain.UserEntry("generate"),
		domain.SystemEntry("Choose your class:"),
		domain.ErrorEntry("Error encountered: boom"),
	}

	t.Run("hides user lines unless echoing", func(t *testing.T) {
		out := &bytes.Buffer{}
		h := NewTextHandler(strings.NewReader(""), out)
		require.NoError(t, h.Output(context.Background(), entries, false))
		assert.Equal(t, "Choose your class:\nError encountered: boom\n", out.String())
	})

	t.Run("echo shows user lines with the prompt", func(t *testing.T) {
		out := &bytes.Buffer{}
		h := NewTextHandler(strings.NewReader(""), out, WithEcho(true))
		require.NoError(t, h.Output(context.Background(), entries[:1], false))
		assert.Equal(t, "> generate\n", out.String())
	})

	t.Run("renderer wins over the default format", func(t *testing.T) {
		out := &bytes.Buffer{}
		h := NewTextHandler(strings.NewReader(""), out, WithTextHandlerRenderer(func(e domain.Entry) (string, error) {
			return strings.ToUpper(string(e.Kind)) + ": " + e.Text, nil
		}))
		require.NoError(t, h.Output(context.Background(), entries[1:2], false))
		assert.Equal(t, "SYSTEM: Choose your class:\n", out.String())
	})
}

func TestTextHandler_Input(t *testing.T) {
	out := &bytes.Buffer{}
	h := NewTextHandler(strings.NewReader("fix\r\nNull\x00Byte\n"), out)

	val, err := h.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fix", val)

	val, err = h.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "NullByte", val)

	_, err = h.Input(context.Background())
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, Prompt+Prompt+Prompt, out.String())
}

func TestTextHandler_InputRetriesRejectedLines(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "5")
	out := &bytes.Buffer{}
	h := NewTextHandler(strings.NewReader("way too long\nfeat\n"), out)

	val, err := h.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "feat", val)
	assert.Contains(t, out.String(), "Please try again.")
}

func TestTextHandler_InputHonoursContext(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	h := NewTextHandler(pr, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.Input(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJSONHandler_Input(t *testing.T) {
	out := &bytes.Buffer{}
	h := NewJSONHandler(strings.NewReader("\"feat\"\n{\"input\":\"add login\"}\n  plain text  \n"), out)

	for _, want := range []string{"feat", "add login", "plain text"} {
		got, err := h.Input(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := h.Input(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestJSONHandler_Output(t *testing.T) {
	out := &bytes.Buffer{}
	h := NewJSONHandler(strings.NewReader(""), out)

	require.NoError(t, h.Output(context.Background(), []domain.Entry{domain.SystemEntry("hi")}, true))
	require.NoError(t, h.SystemOutput(context.Background(), "bye"))

	assert.Equal(t,
		`{"type":"reset"}`+"\n"+
			`{"type":"entry","entry":{"kind":"system","text":"hi"}}`+"\n"+
			`{"type":"system","text":"bye"}`+"\n",
		out.String())
}
