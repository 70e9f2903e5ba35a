package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(Config{
		AccessToken:   "token",
		PhoneNumberID: "555",
		GraphURL:      server.URL,
		APIVersion:    "v20.0",
	}, server.Client(), zerolog.Nop())
}

func TestNormalizePhone(t *testing.T) {
	client := New(Config{}, nil, zerolog.Nop())

	require.Equal(t, "919876543210", client.NormalizePhone("98765 43210"))
	require.Equal(t, "447700900123", client.NormalizePhone("+44 7700-900123"))
	require.Equal(t, "910919876543", client.NormalizePhone("0919876543"))
	require.Equal(t, "12345", client.NormalizePhone("12345"))
	require.Equal(t, "", client.NormalizePhone("n/a"))
}

func TestSendTextPostsMessage(t *testing.T) {
	var captured map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v20.0/555/messages", r.URL.Path)
		require.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid"}]}`))
	})

	require.NoError(t, client.SendText(context.Background(), "9876543210", "hello"))
	require.Equal(t, "whatsapp", captured["messaging_product"])
	require.Equal(t, "919876543210", captured["to"])
	require.Equal(t, "text", captured["type"])
	text := captured["text"].(map[string]interface{})
	require.Equal(t, "hello", text["body"])
	require.Equal(t, false, text["preview_url"])
}

func TestSendTemplateIncludesParameters(t *testing.T) {
	var captured message
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, client.SendTemplate(context.Background(), "+919876543210", "fee_paid", "", []string{"Asha", "March", "600"}))
	require.NotNil(t, captured.Template)
	require.Equal(t, "fee_paid", captured.Template.Name)
	require.Equal(t, "en", captured.Template.Language.Code)
	require.Len(t, captured.Template.Components, 1)
	require.Len(t, captured.Template.Components[0].Parameters, 3)
	require.Equal(t, "March", captured.Template.Components[0].Parameters[1].Text)
}

func TestSendSurfacesAPIErrorMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid parameter"}}`))
	})

	err := client.SendDocument(context.Background(), "9876543210", "https://example.com/r.html", "receipt.html", "Receipt")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Invalid parameter")
}

func TestSendSkipsBlankPhoneAndRequiresConfig(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, client.SendText(context.Background(), "", "hello"))
	require.Zero(t, calls)

	unconfigured := New(Config{}, nil, zerolog.Nop())
	require.False(t, unconfigured.Enabled())
	require.ErrorIs(t, unconfigured.SendText(context.Background(), "9876543210", "hello"), ErrNotConfigured)
}
